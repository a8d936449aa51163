package policy

import (
	"fmt"
	"time"
)

// View is the policy as shown to operators, with human-readable lifetimes.
type View struct {
	TokenPolicy
	AccessTokenDisplay     string `json:"accessTokenExpiryDisplay"`
	RefreshTokenDisplay    string `json:"refreshTokenExpiryDisplay"`
	RememberMeTokenDisplay string `json:"rememberMeTokenExpiryDisplay"`
}

func (p TokenPolicy) View() View {
	return View{
		TokenPolicy:            p,
		AccessTokenDisplay:     FormatDuration(p.AccessTokenDuration()),
		RefreshTokenDisplay:    FormatDuration(p.RefreshTokenDuration()),
		RememberMeTokenDisplay: FormatDuration(p.RememberMeTokenDuration()),
	}
}

// FormatDuration renders d in the largest unit that is at least one:
// "1.5 days", "6.0 hours", "15 minutes".
func FormatDuration(d time.Duration) string {
	switch {
	case d >= day:
		return fmt.Sprintf("%.1f days", d.Hours()/24)
	case d >= time.Hour:
		return fmt.Sprintf("%.1f hours", d.Hours())
	default:
		return fmt.Sprintf("%.0f minutes", d.Minutes())
	}
}
