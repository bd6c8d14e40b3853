package dispatch

import (
	"context"
	"fmt"
	"time"

	"docwatch/internal/reminder/models"
	dErrors "docwatch/pkg/domain-errors"
)

const dateLayout = "02.01.2006"

// smsMaxRunes is the classic single-segment SMS limit. Bodies are always
// pre-truncated because the transport contract guarantees no enforcement.
const smsMaxRunes = 160

func fallbackChat(doc *models.TrackedDocument, now time.Time) string {
	return fmt.Sprintf("Reminder: document '%s' expires in %d days (on %s). Please plan its renewal.",
		doc.Name, doc.DaysLeft(now), doc.ExpiresAt.UTC().Format(dateLayout))
}

func fallbackSMS(doc *models.TrackedDocument) string {
	return fmt.Sprintf("Reminder: '%s' expires %s. Plan renewal.",
		doc.Name, doc.ExpiresAt.UTC().Format(dateLayout))
}

func fallbackVoiceScript(doc *models.TrackedDocument) string {
	return fmt.Sprintf("Your document %s expires on %s, in two weeks. Please plan its renewal as soon as possible.",
		doc.Name, doc.ExpiresAt.UTC().Format(dateLayout))
}

// truncate cuts text to at most limit runes.
func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

// renderBounded calls the renderer through a goroutine boundary so a stalled
// collaborator cannot hold up the caller past the timeout. Empty output is
// treated as a rendering failure.
func renderBounded(ctx context.Context, renderer Renderer, timeout time.Duration,
	recipient *models.Recipient, doc *models.TrackedDocument, channel models.Channel) (string, error) {

	if renderer == nil {
		return "", dErrors.New(dErrors.CodeRendering, "no renderer configured")
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type rendered struct {
		text string
		err  error
	}
	results := make(chan rendered, 1)
	go func() {
		text, err := renderer.Render(ctx, recipient, doc, channel)
		results <- rendered{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", dErrors.Wrap(ctx.Err(), dErrors.CodeRendering, "renderer timed out")
	case result := <-results:
		if result.err != nil {
			return "", dErrors.Wrap(result.err, dErrors.CodeRendering, "renderer failed")
		}
		if result.text == "" {
			return "", dErrors.New(dErrors.CodeRendering, "renderer returned empty text")
		}
		return result.text, nil
	}
}
