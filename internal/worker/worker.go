package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dmitrijs2005/mediasync/internal/cache"
	"github.com/dmitrijs2005/mediasync/internal/common"
	"github.com/dmitrijs2005/mediasync/internal/logging"
	"github.com/dmitrijs2005/mediasync/internal/metrics"
	"github.com/dmitrijs2005/mediasync/internal/remote"
	"github.com/google/uuid"
)

// Worker sequences the engine's operations: one inbound message is handled
// to completion before the next is read, and every message is answered by
// exactly one response. Callers must serialize destructive operations
// (removecache, deletedb) against loads themselves; the worker does not
// interleave them but gives no cross-process guarantee.
type Worker struct {
	store  *cache.Store
	blobs  remote.ObjectStore
	secret []byte
	log    logging.Logger
	m      *metrics.Metrics

	engine *Engine
}

func New(store *cache.Store, blobs remote.ObjectStore, secret []byte, log logging.Logger, m *metrics.Metrics) *Worker {
	return &Worker{
		store:  store,
		blobs:  blobs,
		secret: secret,
		log:    log.With("component", "worker"),
		m:      m,
	}
}

// ensureEngine builds the engine context on the first load. Repeated loads
// reuse the existing context; only the first call per lifetime has effect.
func (w *Worker) ensureEngine(sd SessionData, types []string) (*Engine, error) {
	if w.engine != nil {
		return w.engine, nil
	}
	eng, err := newEngine(sd, types, w.store, w.blobs, w.secret, w.log, w.m)
	if err != nil {
		return nil, err
	}
	w.engine = eng
	return eng, nil
}

// Handle dispatches one request and returns its response. It never panics
// on protocol-level problems; those become failure responses.
func (w *Worker) Handle(ctx context.Context, req Request) Response {
	switch r := req.(type) {

	case LoadRequest:
		w.log.Info(ctx, "load requested", "origin", r.Origin, "location", r.Location)
		eng, err := w.ensureEngine(r.Session, r.RecognizedTypes)
		if err != nil {
			return failure(MsgLoadComplete, err)
		}
		counts, err := eng.Load(ctx)
		if err != nil {
			return failure(MsgLoadComplete, err)
		}
		resp := success(MsgLoadComplete)
		resp.NewCounts = counts
		return resp

	case CacheIndexesRequest:
		eng, err := w.requireEngine()
		if err != nil {
			return failure(MsgCacheIndexesComplete, err)
		}
		if err := eng.CacheIndexes(ctx, r.IndexFiles); err != nil {
			return failure(MsgCacheIndexesComplete, err)
		}
		return success(MsgCacheIndexesComplete)

	case UpdateCacheRequest:
		eng, err := w.requireEngine()
		if err != nil {
			return failure(MsgUpdateCacheComplete, err)
		}
		if err := eng.UpdateCache(ctx, r.IndexFile); err != nil {
			return failure(MsgUpdateCacheComplete, err)
		}
		return success(MsgUpdateCacheComplete)

	case RemoveCacheRequest:
		eng, err := w.requireEngine()
		if err != nil {
			return failure(MsgRemoveCacheComplete, err)
		}
		if err := eng.RemoveCache(ctx, r.IndexFile); err != nil {
			return failure(MsgRemoveCacheComplete, err)
		}
		return success(MsgRemoveCacheComplete)

	case DeleteDBRequest:
		// always succeeds from the caller's perspective
		if err := w.store.Reset(ctx); err != nil {
			w.log.Error(ctx, "cache reset failed", "error", err)
		}
		if w.engine != nil {
			w.engine.ClearRemoteIndexes(ctx)
		}
		return success(MsgDeleteDBComplete)

	case ValidateGroupRequest:
		eng, err := w.requireEngine()
		if err != nil {
			return failure(MsgValidateComplete, err)
		}
		if err := eng.ValidateGroup(ctx, r.GroupId, r.Missing); err != nil {
			return failure(MsgValidateComplete, err)
		}
		return success(MsgValidateComplete)

	case UnknownRequest:
		return Response{Message: MsgUnknown, Result: false}

	default:
		return Response{Message: MsgUnknown, Result: false}
	}
}

func (w *Worker) requireEngine() (*Engine, error) {
	if w.engine == nil {
		return nil, common.ErrSessionNotReady
	}
	return w.engine, nil
}

// Run reads newline-delimited JSON messages from r, writes one JSON
// response per message to out, and emits an unsolicited ready message
// first. Returns when r is exhausted or ctx is done.
func (w *Worker) Run(ctx context.Context, r io.Reader, out io.Writer) error {
	enc := json.NewEncoder(out)
	if err := enc.Encode(Response{Message: MsgReady, Result: true}); err != nil {
		return err
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		reqId := uuid.NewString()

		req, err := ParseRequest(line)
		if err != nil {
			w.log.Warn(ctx, "unparseable message", "request_id", reqId, "error", err)
			if encErr := enc.Encode(Response{Message: MsgUnknown, Result: false, Error: err.Error()}); encErr != nil {
				return encErr
			}
			continue
		}

		resp := w.Handle(ctx, req)
		if !resp.Result {
			w.log.Warn(ctx, "operation failed", "request_id", reqId, "message", resp.Message, "error", resp.Error)
		}
		if err := enc.Encode(resp); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("message loop terminated: %w", err)
	}
	return nil
}
