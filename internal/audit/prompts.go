package audit

import (
	"fmt"

	"github.com/ashureev/bluecaller/internal/domain"
)

// PromptTimeLayout matches an ISO-8601 local timestamp with microseconds.
const PromptTimeLayout = "2006-01-02T15:04:05.000000"

// PromptLog is the raw prompt journal: one line per admitted request.
type PromptLog struct {
	file *appendFile
}

// OpenPromptLog opens (or creates) the prompt journal at path.
func OpenPromptLog(path string) (*PromptLog, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, err
	}
	return &PromptLog{file: f}, nil
}

// Append implements pipeline.PromptJournal. Newlines in the input are
// escaped so each request stays on one line.
func (p *PromptLog) Append(req domain.PromptRequest) error {
	line := fmt.Sprintf("[%s] IP: %s | Prompt: %s\n",
		req.Timestamp.Format(PromptTimeLayout),
		req.ClientAddress,
		oneLine(req.RawInput),
	)
	if _, err := p.file.Write([]byte(line)); err != nil {
		return fmt.Errorf("append prompt log: %w", err)
	}
	return nil
}

// Close closes the underlying file.
func (p *PromptLog) Close() error {
	return p.file.Close()
}
