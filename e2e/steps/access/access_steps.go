package access

import (
	"context"
	"fmt"

	"github.com/cucumber/godog"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	GET(path string) error
	Upload(path, field, filename, contentType string, data []byte) error
	GetResponseField(field string) (any, error)
}

// RegisterSteps registers project detail and ID verification steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &accessSteps{tc: tc}

	ctx.Step(`^I open project "([^"]*)"$`, steps.openProject)
	ctx.Step(`^I check access to project "([^"]*)"$`, steps.checkAccess)
	ctx.Step(`^I upload an ID card for project "([^"]*)"$`, steps.uploadIDCard)
	ctx.Step(`^I upload a "([^"]*)" file for project "([^"]*)"$`, steps.uploadFile)
	ctx.Step(`^the gate should be "([^"]*)"$`, steps.gateShouldBe)
	ctx.Step(`^the project content should be visible$`, steps.contentVisible)
	ctx.Step(`^the project content should be hidden$`, steps.contentHidden)
}

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

type accessSteps struct {
	tc TestContext
}

func (s *accessSteps) openProject(ctx context.Context, id string) error {
	return s.tc.GET("/projects/" + id)
}

func (s *accessSteps) checkAccess(ctx context.Context, id string) error {
	return s.tc.GET("/projects/" + id + "/access")
}

func (s *accessSteps) uploadIDCard(ctx context.Context, id string) error {
	return s.tc.Upload("/projects/"+id+"/access", "id_card", "student-id.png", "image/png", pngHeader)
}

func (s *accessSteps) uploadFile(ctx context.Context, contentType, id string) error {
	return s.tc.Upload("/projects/"+id+"/access", "id_card", "upload.bin", contentType, []byte("not an image"))
}

func (s *accessSteps) gateShouldBe(ctx context.Context, state string) error {
	got, err := s.tc.GetResponseField("gate.state")
	if err != nil {
		return err
	}
	if got != state {
		return fmt.Errorf("expected gate %q, got %v", state, got)
	}
	return nil
}

func (s *accessSteps) contentVisible(ctx context.Context) error {
	got, err := s.tc.GetResponseField("content.contact.email")
	if err != nil {
		return fmt.Errorf("expected restricted content: %w", err)
	}
	if got == "" {
		return fmt.Errorf("restricted content has no contact email")
	}
	return nil
}

func (s *accessSteps) contentHidden(ctx context.Context) error {
	if _, err := s.tc.GetResponseField("content"); err == nil {
		return fmt.Errorf("expected restricted content to be hidden")
	}
	return nil
}
