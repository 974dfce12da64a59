// Package cli provides thin CLI adapters that translate between CLI concerns
// and application services. Adapters handle output formatting and delegate
// everything else to services.
package cli

import (
	"fmt"
	"math"
	"strings"

	"github.com/fatih/color"

	"github.com/example/pinpoint/internal/models"
)

const rule = "────────────────────────────────────────────────────────────────"

var (
	movingColor = color.New(color.FgYellow)
	targetColor = color.New(color.FgGreen)
	idleColor   = color.New(color.FgCyan)
	dimColor    = color.New(color.FgHiBlack)
	errorColor  = color.New(color.FgRed)
)

func stateColor(state string) *color.Color {
	switch {
	case state == "at_target":
		return targetColor
	case state == "" || state == "is_uncalibrated":
		return dimColor
	case strings.HasPrefix(state, "driving_"), strings.HasPrefix(state, "exiting_"),
		strings.HasPrefix(state, "returning_"):
		return movingColor
	}
	return idleColor
}

// colorState renders an automation or drive panel state name. Transitional
// states are yellow, the target is green, everything else cyan.
func colorState(state string) string {
	return stateColor(state).Sprint(orDash(state))
}

// padState is colorState padded to width before the escape codes are added.
func padState(state string, width int) string {
	return stateColor(state).Sprintf("%-*s", width, orDash(state))
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return "unset"
	}
	return fmt.Sprintf("%.3f", v)
}

func formatVector3(v models.Vector3) string {
	if v.IsNaN() {
		return "unset"
	}
	return fmt.Sprintf("(%.3f, %.3f, %.3f)", v.X, v.Y, v.Z)
}

func formatVector4(v models.Vector4) string {
	if v.IsNaN() {
		return "unset"
	}
	return fmt.Sprintf("(%.3f, %.3f, %.3f, %.3f)", v.X, v.Y, v.Z, v.W)
}

func formatAngles(a models.Angles) string {
	return fmt.Sprintf("yaw %.1f° pitch %.1f° roll %.1f°", a.Yaw, a.Pitch, a.Roll)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
