package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MikeSquared-Agency/nickfinder/internal/finder"
	"github.com/MikeSquared-Agency/nickfinder/internal/report"
)

const defaultPostMessageURL = "https://slack.com/api/chat.postMessage"

// Poster sends run summaries to a Slack channel.
type Poster struct {
	token   string
	channel string
	client  *http.Client
	logger  *slog.Logger
	apiURL  string
}

func NewPoster(token, channel string, logger *slog.Logger) *Poster {
	return &Poster{
		token:   token,
		channel: channel,
		client:  &http.Client{Timeout: 10 * time.Second},
		apiURL:  defaultPostMessageURL,
		logger:  logger,
	}
}

// PostRunSummary posts the outcome of a run and returns the message ts.
func (p *Poster) PostRunSummary(ctx context.Context, res *finder.Result, summary report.Summary) (string, error) {
	text := formatRunSummary(res, summary)

	body, err := json.Marshal(map[string]any{
		"channel": p.channel,
		"text":    text,
		"blocks": []map[string]any{
			{
				"type": "section",
				"text": map[string]any{
					"type": "mrkdwn",
					"text": text,
				},
			},
			{
				"type": "context",
				"elements": []map[string]any{
					{
						"type": "mrkdwn",
						"text": "run " + res.RunID.String(),
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var slackResp struct {
		OK    bool   `json:"ok"`
		TS    string `json:"ts"`
		Error string `json:"error,omitempty"`
	}
	if err := json.Unmarshal(respBody, &slackResp); err != nil {
		return "", fmt.Errorf("parse slack response: %w", err)
	}
	if !slackResp.OK {
		return "", fmt.Errorf("slack error: %s", slackResp.Error)
	}

	p.logger.Info("posted run summary to slack", "ts", slackResp.TS, "run_id", res.RunID)
	return slackResp.TS, nil
}

func formatRunSummary(res *finder.Result, summary report.Summary) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "*Nickname scan*: %d files seen, %d scanned", res.Stats.FilesSeen, res.Stats.FilesScanned)
	if res.Stats.FilesFiltered > 0 {
		fmt.Fprintf(&sb, ", %d without you", res.Stats.FilesFiltered)
	}
	if n := res.Stats.FilesIgnored + res.Stats.FilesFailed; n > 0 {
		fmt.Fprintf(&sb, ", %d skipped", n)
	}
	sb.WriteString("\n\n")

	if summary.Distinct() == 0 {
		sb.WriteString("_No nicknames found._")
		return sb.String()
	}

	fmt.Fprintf(&sb, "*Found %d nicknames*\n", summary.Distinct())
	for _, n := range summary.Nicknames {
		first := time.UnixMilli(n.FirstSeenMs).UTC().Format("2006-01-02")
		fmt.Fprintf(&sb, "• %s", n.Nickname)
		if n.Count > 1 {
			fmt.Fprintf(&sb, " (%d times)", n.Count)
		}
		fmt.Fprintf(&sb, " since %s\n", first)
	}
	return sb.String()
}
