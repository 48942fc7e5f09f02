package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/mediasync/internal/common"
	"github.com/dmitrijs2005/mediasync/internal/cryptox"
	"github.com/dmitrijs2005/mediasync/internal/ident"
	"github.com/dmitrijs2005/mediasync/internal/logging"
	"github.com/dmitrijs2005/mediasync/internal/session"
	"github.com/dmitrijs2005/mediasync/internal/worker"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

const interactiveTokenTTL = 24 * time.Hour

// interactiveLoad prompts for credentials on the terminal, self-issues an
// access token, and runs an initial load before the message loop starts.
// Prompts go to stderr so stdout stays clean for protocol output.
func interactiveLoad(ctx context.Context, w *worker.Worker, reader *bufio.Reader, secret []byte, logger logging.Logger) error {
	fmt.Fprint(os.Stderr, "username: ")
	username, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read username: %w", err)
	}
	username = strings.TrimSpace(username)
	if username == "" {
		return fmt.Errorf("username must not be empty")
	}

	fmt.Fprint(os.Stderr, "passphrase: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read passphrase: %w", err)
	}

	token, err := session.IssueToken(username, secret, interactiveTokenTTL)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	masterKey := cryptox.DeriveMasterKey(pw, []byte(username))
	common.WipeByteArray(pw)

	resp := w.Handle(ctx, worker.LoadRequest{Session: worker.SessionData{
		Username: username,
		// no account service in this flow, so the owner key is derived
		// from the username
		OwnerPublicKey: ident.Hash("owner", username),
		AccessToken:    token,
		MasterKey:      masterKey,
	}})
	if !resp.Result {
		return fmt.Errorf("initial load failed: %s", resp.Error)
	}

	logger.Info(ctx, "initial load complete", "new_counts", resp.NewCounts)
	return nil
}
