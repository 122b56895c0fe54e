package lint

import (
	"bufio"
	"fmt"
	"strings"
)

// confirmChanges shows the fix plan and asks for a go-ahead. Returns false
// when the user declines; auto-confirm and dry-run callers never get here.
func (f *Fixer) confirmChanges(plan *fixPlan) (bool, error) {
	if _, err := fmt.Fprintln(f.confirmOut, previewPlan(plan)); err != nil {
		return false, err
	}
	if _, err := fmt.Fprint(f.confirmOut, "Apply these changes? [y/N]: "); err != nil {
		return false, err
	}

	reader := bufio.NewReader(f.confirmIn)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("read confirmation: %w", err)
	}

	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
