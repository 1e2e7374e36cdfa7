package session

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	POST(path string, body any) error
	GetLastStatus() int
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers login, logout and session steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &sessionSteps{tc: tc}

	ctx.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, steps.logIn)
	ctx.Step(`^I am logged in as "([^"]*)"$`, steps.loggedIn)
	ctx.Step(`^I log out$`, steps.logOut)
	ctx.Step(`^I should be signed in as "([^"]*)"$`, steps.signedInAs)
	ctx.Step(`^I should be signed out$`, steps.signedOut)
}

const demoPassword = "password123"

type sessionSteps struct {
	tc TestContext
}

func (s *sessionSteps) logIn(ctx context.Context, email, password string) error {
	return s.tc.POST("/login", map[string]string{"email": email, "password": password})
}

func (s *sessionSteps) loggedIn(ctx context.Context, email string) error {
	if err := s.logIn(ctx, email, demoPassword); err != nil {
		return err
	}
	if status := s.tc.GetLastStatus(); status != 200 {
		return fmt.Errorf("login as %s failed with status %d", email, status)
	}
	return nil
}

func (s *sessionSteps) logOut(ctx context.Context) error {
	return s.tc.POST("/logout", nil)
}

func (s *sessionSteps) signedInAs(ctx context.Context, name string) error {
	if err := s.tc.GET("/session"); err != nil {
		return err
	}
	got, err := s.tc.GetResponseField("user.name")
	if err != nil {
		return err
	}
	if got != name {
		return fmt.Errorf("expected to be signed in as %q, got %v", name, got)
	}
	return nil
}

func (s *sessionSteps) signedOut(ctx context.Context) error {
	if err := s.tc.GET("/session"); err != nil {
		return err
	}
	got, err := s.tc.GetResponseField("authenticated")
	if err != nil {
		return err
	}
	if got != false {
		return fmt.Errorf("expected to be signed out, authenticated=%v", got)
	}
	return nil
}
