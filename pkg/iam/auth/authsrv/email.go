package authsrv

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldops360/auth-service/pkg/asyncx"
	"github.com/fieldops360/auth-service/pkg/iam/user"
	"github.com/fieldops360/auth-service/pkg/logx"
	"github.com/fieldops360/auth-service/pkg/notifx"
	"github.com/fieldops360/auth-service/pkg/tenant"
)

const TemplatePasswordReset = "auth.password_reset"

const resetSubject = `FieldOps360 - Reinitialisation du mot de passe`

const resetBody = `<h2>Reinitialisation du mot de passe</h2>
<p>Bonjour {{.FirstName}},</p>
<p>Votre code de reinitialisation est: <strong>{{.Token}}</strong></p>
<p>Ce code expire dans {{.ExpiresIn}}.</p>
<p>Si vous n'avez pas demande cette reinitialisation, ignorez cet email.</p>
`

type resetEmailData struct {
	FirstName string
	Token     string
	ExpiresIn string
}

// Delivery bounds the background send of a reset email.
type Delivery struct {
	Attempts     int
	InitialDelay time.Duration
	Timeout      time.Duration
}

func DefaultDelivery() Delivery {
	return Delivery{Attempts: 3, InitialDelay: 500 * time.Millisecond, Timeout: 10 * time.Second}
}

func registerTemplates(c *notifx.Client) error {
	return c.RegisterTemplate(TemplatePasswordReset, resetSubject, resetBody)
}

// sendResetEmail never reports failure to the caller: the token is stored
// and the user can ask again.
func (s *AuthService) sendResetEmail(ctx context.Context, scope *tenant.Scope, u *user.User, token string) {
	log := logx.WithContext(ctx).WithFields(logx.Fields{
		"tenant_id": scope.Tenant.ID,
		"user_id":   u.ID,
	})
	if s.mailer == nil {
		log.Warn("no email provider configured, reset token not delivered")
		return
	}

	data := resetEmailData{
		FirstName: u.FirstName,
		Token:     token,
		ExpiresIn: humanDuration(s.policy.ResetTokenTTL),
	}
	msg := notifx.EmailMessage{To: []string{u.Email}}
	tags := notifx.WithTags(map[string]string{
		"category": "password_reset",
		"tenant":   scope.Tenant.Subdomain,
	})
	d := s.delivery

	asyncx.DoCtx(context.WithoutCancel(ctx), "password-reset-email", func(ctx context.Context) {
		_, err := asyncx.RetryWithBackoff(ctx, d.Attempts, d.InitialDelay, func(ctx context.Context) (struct{}, error) {
			return asyncx.WithTimeout(ctx, d.Timeout, func(ctx context.Context) (struct{}, error) {
				return struct{}{}, s.mailer.SendTemplatedEmail(ctx, TemplatePasswordReset, data, msg, tags)
			})
		})
		if err != nil {
			log.WithError(err).Warn("password reset email not delivered")
		}
	})
}

func humanDuration(d time.Duration) string {
	if d >= time.Hour && d%time.Hour == 0 {
		if h := int(d / time.Hour); h > 1 {
			return fmt.Sprintf("%d heures", h)
		}
		return "1 heure"
	}
	return fmt.Sprintf("%d minutes", int(d.Round(time.Minute)/time.Minute))
}
