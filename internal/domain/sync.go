package domain

import "fmt"

type SyncSummary struct {
	Succeeded int
	Failed    int
	Exhausted []PendingAction
}

func (s SyncSummary) Attempted() int {
	return s.Succeeded + s.Failed
}

func (s SyncSummary) Message() string {
	if s.Attempted() == 0 && len(s.Exhausted) == 0 {
		return "Nothing to sync"
	}

	msg := ""
	if s.Succeeded > 0 {
		msg = fmt.Sprintf("Synced %s", pluralActions(s.Succeeded))
	}
	if s.Failed > 0 {
		msg = joinSentence(msg, fmt.Sprintf("%s failed, will retry", pluralActions(s.Failed)))
	}
	if n := len(s.Exhausted); n > 0 {
		msg = joinSentence(msg, fmt.Sprintf("%s dropped after too many attempts", pluralActions(n)))
	}
	return msg
}

func pluralActions(n int) string {
	if n == 1 {
		return "1 action"
	}
	return fmt.Sprintf("%d actions", n)
}

func joinSentence(left, right string) string {
	if left == "" {
		return right
	}
	return left + "; " + right
}
