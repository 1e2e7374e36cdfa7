package e2e

import (
	"github.com/cucumber/godog"

	"collegeportal/e2e/steps/access"
	"collegeportal/e2e/steps/common"
	"collegeportal/e2e/steps/session"
)

// RegisterSteps registers all step definitions from modular packages
func RegisterSteps(ctx *godog.ScenarioContext, tc *TestContext) {
	common.RegisterSteps(ctx, tc)
	session.RegisterSteps(ctx, tc)
	access.RegisterSteps(ctx, tc)
}
