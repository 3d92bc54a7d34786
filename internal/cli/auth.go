package cli

import (
	"context"
	"log"

	"github.com/EllowDigital/DhanDiary-sub000/internal/local/meta"
	"github.com/EllowDigital/DhanDiary-sub000/internal/models"
)

// Login reads an identity token, caches the session and kicks off a sync so
// the account's entries appear right away.
func (a *App) Login(ctx context.Context) {
	token, err := GetToken()
	if err != nil {
		log.Printf("error: %v", err)
		return
	}

	s, err := a.bridge.Login(ctx, token)
	if err != nil {
		log.Printf("Login unsuccessful: %s", err.Error())
		return
	}
	a.session = s
	log.Printf("Logged in as %s", s.Email)

	a.manager.RequestSync(ctx, a.manualSync())
}

// Logout aborts any in-flight sync before dropping the session; a run that
// kept going could write rows under an owner the user just walked away from.
func (a *App) Logout(ctx context.Context) {
	a.manager.Token().Cancel()

	if err := a.bridge.Logout(ctx); err != nil {
		log.Printf("Error: %s", err.Error())
		return
	}
	a.session = nil
	log.Println("Logged out")
}

// owner returns the identifier local rows should be written under. It
// resolves through the bridge so offline use gets its placeholder.
func (a *App) owner(ctx context.Context) (string, bool) {
	if a.session != nil && a.session.OwnerID != "" {
		return a.session.OwnerID, true
	}

	s, err := a.bridge.Resolve(ctx)
	if err == nil {
		a.session = s
		return s.OwnerID, true
	}

	// a placeholder may have been minted during the failed resolve
	if s := a.refreshSession(ctx); s != nil && s.OwnerID != "" {
		return s.OwnerID, true
	}

	printlnFn("Not logged in. Use 'login' first.")
	return "", false
}

func (a *App) refreshSession(ctx context.Context) *models.Session {
	s, err := meta.GetSession(ctx, a.repos.Meta)
	if err != nil || s == nil {
		return nil
	}
	a.session = s
	return s
}
