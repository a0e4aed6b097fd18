package services

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"front/models"
)

const maxFrameSize = 1 << 20

var (
	ErrIncompleteFrame = errors.New("stream ended inside an unterminated frame")

	frameTerminator = []byte("\n\n")
)

// ScanFrames is a bufio.SplitFunc yielding one SSE frame per token, the
// terminating blank line included. Leftover bytes at EOF are an error.
func ScanFrames(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if i := bytes.Index(data, frameTerminator); i >= 0 {
		end := i + len(frameTerminator)
		return end, data[:end], nil
	}
	if atEOF && len(data) > 0 {
		return 0, nil, ErrIncompleteFrame
	}
	return 0, nil, nil
}

// RelayFrames reads r until EOF and hands every complete frame to emit, in
// order. The frame slice is only valid until emit returns.
func RelayFrames(r io.Reader, emit func(frame []byte) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxFrameSize)
	scanner.Split(ScanFrames)

	for scanner.Scan() {
		if err := emit(scanner.Bytes()); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// StreamConversation posts the chat request and relays the upstream SSE
// frames to emit. A non-200 answer ends the stream without emitting anything.
func (c *AssistantClient) StreamConversation(ctx context.Context, req models.ConversationRequest, token string, emit func(frame []byte) error) error {
	// Each stream gets its own connection.
	rest := resty.New().SetBaseURL(c.baseURL)
	defer rest.GetClient().CloseIdleConnections()

	resp, err := rest.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("Accept", "text/event-stream").
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		SetDoNotParseResponse(true).
		Post("/assistant/chat")
	if err != nil {
		return fmt.Errorf("failed to open chat stream: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	c.logger.Debug("chat stream opened",
		zap.String("conversation_id", req.ConversationID),
		zap.Int("status", resp.StatusCode()),
	)

	if resp.StatusCode() != http.StatusOK {
		content, _ := io.ReadAll(io.LimitReader(body, 64<<10))
		c.logger.Error("chat stream rejected",
			zap.Int("status", resp.StatusCode()),
			zap.ByteString("body", content),
		)
		return nil
	}

	if err := RelayFrames(body, emit); err != nil {
		return fmt.Errorf("chat stream %s: %w", req.ConversationID, err)
	}
	return nil
}
