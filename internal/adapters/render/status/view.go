package status

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/bnema/propman-cli/internal/application"
	"github.com/bnema/propman-cli/internal/domain"
	"github.com/charmbracelet/lipgloss"
)

const defaultBarWidth = 12

type RenderOptions struct {
	Now      time.Time
	BarWidth int
}

func renderView(status application.Status, opts RenderOptions, s styles) string {
	now := opts.Now
	if now.IsZero() {
		now = status.CheckedAt
	}

	lines := []string{
		s.title.Render("Property Manager"),
		s.header.Render(fmt.Sprintf("pending actions: %d", status.PendingCount())),
		s.section.Render(lipgloss.JoinVertical(lipgloss.Left,
			sessionLine(status, now, s),
			networkLine(status, s),
		)),
	}

	if status.PendingCount() == 0 {
		lines = append(lines, s.section.Render(s.empty.Render("No changes waiting to sync.")))
		return lipgloss.JoinVertical(lipgloss.Left, lines...)
	}

	barWidth := opts.BarWidth
	if barWidth <= 0 {
		barWidth = defaultBarWidth
	}

	actions := make([]string, 0, len(status.Pending)+1)
	actions = append(actions, s.label.Render("queue:"))
	for _, action := range status.Pending {
		actions = append(actions, actionLine(action, status.MaxRetries, barWidth, now, s))
	}
	lines = append(lines, s.section.Render(lipgloss.JoinVertical(lipgloss.Left, actions...)))

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func sessionLine(status application.Status, now time.Time, s styles) string {
	label := s.label.Render("session:")
	if !status.Authenticated {
		return label + " " + s.warning.Render("signed out") + " " + s.empty.Render("(run `pm login`)")
	}

	state := s.good.Render("signed in")
	if !status.AccessTokenValid {
		state = s.detail.Render("signed in, token refreshes on next request")
	}

	if status.TokenExpiresAt.IsZero() {
		return label + " " + state
	}
	expiry := lipgloss.NewStyle().
		Foreground(expiryColor(status.TokenExpiresAt, now)).
		Render(fmt.Sprintf("(%s)", formatExpiry(status.TokenExpiresAt, now)))

	return lipgloss.JoinHorizontal(lipgloss.Top, label, " ", state, " ", expiry)
}

func networkLine(status application.Status, s styles) string {
	label := s.label.Render("network:")
	if status.Online {
		return label + " " + s.good.Render("online")
	}
	return label + " " + s.warning.Render("offline") + " " + s.empty.Render("(changes are queued)")
}

func actionLine(action domain.PendingAction, maxRetries, barWidth int, now time.Time, s styles) string {
	usedPercent := 0.0
	if maxRetries > 0 {
		usedPercent = float64(action.RetryCount) / float64(maxRetries) * 100
	}
	leftPercent := clampPercent(100 - usedPercent)

	attempts := lipgloss.NewStyle().
		Foreground(interpolateColor(leftPercent, 0, 100)).
		Render(fmt.Sprintf("%d/%d attempts", action.RetryCount, maxRetries))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		"  ",
		s.actionType.Render(action.Type),
		" ",
		s.detail.Render(fmt.Sprintf("%s %s", action.Method, action.Endpoint)),
		" ",
		renderProgressBar(usedPercent, barWidth, s),
		" ",
		attempts,
		" ",
		s.actionMeta.Render(fmt.Sprintf("(queued %s)", formatAge(action.EnqueuedAt(), now))),
	)
}

// renderProgressBar fills the bar with what is left, so a fresh action shows
// a full bar that empties as retries are spent.
func renderProgressBar(usedPercent float64, width int, s styles) string {
	if width <= 0 {
		return ""
	}

	used := clampPercent(usedPercent)
	leftFraction := (100.0 - used) / 100.0
	filled := int(math.Round(float64(width) * leftFraction))
	if filled < 0 {
		filled = 0
	}
	if filled > width {
		filled = width
	}

	empty := width - filled
	fillSegment := s.barFill.Render(strings.Repeat("=", filled))
	emptySegment := s.barEmpty.Render(strings.Repeat("-", empty))

	return lipgloss.JoinHorizontal(
		lipgloss.Top,
		s.barBracket.Render("["),
		fillSegment,
		emptySegment,
		s.barBracket.Render("]"),
	)
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func formatExpiry(expiresAt, now time.Time) string {
	if now.IsZero() {
		return "expires " + expiresAt.Format(time.RFC3339)
	}
	if !expiresAt.After(now) {
		return "expired " + formatAge(expiresAt, now)
	}

	remaining := expiresAt.Sub(now)
	if remaining < time.Hour {
		minutes := int(math.Ceil(remaining.Minutes()))
		return fmt.Sprintf("expires in %s (%s)", plural(minutes, "minute"), expiresAt.Format("15:04"))
	}
	if remaining < 24*time.Hour {
		hours := int(math.Ceil(remaining.Hours()))
		return fmt.Sprintf("expires in %s (%s)", plural(hours, "hour"), expiresAt.Format("15:04"))
	}

	days := int(math.Ceil(remaining.Hours() / 24))
	return fmt.Sprintf("expires in %s (%s)", plural(days, "day"), expiresAt.Format("15:04 on 02 Jan"))
}

func formatAge(at, now time.Time) string {
	if now.IsZero() || at.IsZero() {
		return "at " + at.Format(time.RFC3339)
	}

	elapsed := now.Sub(at)
	switch {
	case elapsed < time.Minute:
		return "just now"
	case elapsed < time.Hour:
		return plural(int(elapsed.Minutes()), "minute") + " ago"
	case elapsed < 24*time.Hour:
		return plural(int(elapsed.Hours()), "hour") + " ago"
	default:
		return plural(int(elapsed.Hours()/24), "day") + " ago"
	}
}

func plural(n int, unit string) string {
	if n < 1 {
		n = 1
	}
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func interpolateColor(value, min, max float64) lipgloss.Color {
	if max == min {
		return lipgloss.Color("255")
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	// 240 (faded grey) at min up to 255 (bright white) at max on the 256-colour ramp.
	baseColor := 240.0
	targetColor := 255.0

	interpolated := baseColor + (targetColor-baseColor)*normalized
	colorCode := int(interpolated)

	return lipgloss.Color(fmt.Sprintf("%d", colorCode))
}

// expiryColor fades from white to grey as the token approaches expiry over
// its last hour.
func expiryColor(expiresAt, now time.Time) lipgloss.Color {
	if now.IsZero() || !expiresAt.After(now) {
		return lipgloss.Color("240")
	}

	window := time.Hour
	remaining := expiresAt.Sub(now)
	return interpolateColor(remaining.Seconds(), 0, window.Seconds())
}
