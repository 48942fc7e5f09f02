// Package worker is the message-driven entry point of the sync engine. It
// runs as an isolated background loop, handling one request to completion
// at a time and answering every request with exactly one response.
package worker

import (
	"encoding/json"
	"fmt"
)

// Message kinds of the request/response protocol.
const (
	MsgReady = "ready"

	MsgLoad         = "load"
	MsgCacheIndexes = "cacheindexes"
	MsgUpdateCache  = "updatecache"
	MsgRemoveCache  = "removecache"
	MsgDeleteDB     = "deletedb"
	MsgValidate     = "validate-group-entries"

	MsgLoadComplete         = "loadcomplete"
	MsgCacheIndexesComplete = "cacheindexescomplete"
	MsgUpdateCacheComplete  = "updatecachecomplete"
	MsgRemoveCacheComplete  = "removecachecomplete"
	MsgDeleteDBComplete     = "deletedbcomplete"
	MsgValidateComplete     = "validate-group-entries-complete"

	MsgUnknown = "unknown"
)

// Request is the closed set of inbound messages. The concrete types below
// are the only implementations.
type Request interface {
	isRequest()
}

// SessionData carries the authenticated identity a load establishes the
// engine context with. Keys arrive already unwrapped; the asymmetric
// exchange happens outside the worker.
type SessionData struct {
	Username       string            `json:"username"`
	OwnerPublicKey string            `json:"ownerPublicKey"`
	AccessToken    string            `json:"accessToken"`
	MasterKey      []byte            `json:"masterKey"`
	SharedKeys     map[string][]byte `json:"sharedKeys,omitempty"`
}

type LoadRequest struct {
	Session         SessionData `json:"sessionData"`
	RecognizedTypes []string    `json:"recognizedTypes,omitempty"`

	// Origin and Location describe the host surface issuing the load.
	// Informational only; they end up in logs.
	Origin   string `json:"origin,omitempty"`
	Location string `json:"location,omitempty"`
}

type CacheIndexesRequest struct {
	IndexFiles []string `json:"indexFiles"`
}

type UpdateCacheRequest struct {
	IndexFile string `json:"indexFile"`
}

type RemoveCacheRequest struct {
	IndexFile string `json:"indexFile"`
}

type DeleteDBRequest struct{}

type MissingGroupEntry struct {
	IndexFile string `json:"indexFile"`
	UserName  string `json:"userName"`
}

type ValidateGroupRequest struct {
	GroupId string              `json:"groupid"`
	Missing []MissingGroupEntry `json:"missing"`
}

// UnknownRequest stands for any message kind outside the protocol.
type UnknownRequest struct {
	Kind string
}

func (LoadRequest) isRequest()          {}
func (CacheIndexesRequest) isRequest()  {}
func (UpdateCacheRequest) isRequest()   {}
func (RemoveCacheRequest) isRequest()   {}
func (DeleteDBRequest) isRequest()      {}
func (ValidateGroupRequest) isRequest() {}
func (UnknownRequest) isRequest()       {}

// Response is the single outbound message answering one request (plus the
// unsolicited ready emitted at startup).
type Response struct {
	Message   string         `json:"message"`
	Result    bool           `json:"result"`
	Error     string         `json:"error,omitempty"`
	NewCounts map[string]int `json:"newCounts,omitempty"`
}

func success(message string) Response {
	return Response{Message: message, Result: true}
}

func failure(message string, err error) Response {
	return Response{Message: message, Result: false, Error: err.Error()}
}

// ParseRequest validates one inbound message at the boundary and returns
// the corresponding request value. Messages outside the protocol come back
// as UnknownRequest, not as an error: the caller still owes a response.
func ParseRequest(data []byte) (Request, error) {
	var head struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("malformed message: %w", err)
	}

	switch head.Message {
	case MsgLoad:
		var req LoadRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("malformed load request: %w", err)
		}
		return req, nil
	case MsgCacheIndexes:
		var req CacheIndexesRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("malformed cacheindexes request: %w", err)
		}
		return req, nil
	case MsgUpdateCache:
		var req UpdateCacheRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("malformed updatecache request: %w", err)
		}
		return req, nil
	case MsgRemoveCache:
		var req RemoveCacheRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("malformed removecache request: %w", err)
		}
		return req, nil
	case MsgDeleteDB:
		return DeleteDBRequest{}, nil
	case MsgValidate:
		var req ValidateGroupRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("malformed validate request: %w", err)
		}
		return req, nil
	default:
		return UnknownRequest{Kind: head.Message}, nil
	}
}
