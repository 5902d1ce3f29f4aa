package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/onboard/pkg/domain"
)

const (
	msgWelcome            = "Welcome! I'll guide you through setting up your workspace. You can skip any step and come back later."
	msgClosed             = "This onboarding is already finished. You can keep working from the regular screens."
	msgUnrecognized       = "I'm not sure how to help with that."
	msgManual             = "Switching to manual entry. You can come back to the guided setup at any time."
	msgInviteInstructions = "Type one team member per line as: name, email, role. The role is optional and defaults to manager."
	msgTeamFormat         = "I couldn't find any team members in that. Use one line per person: name, email, role."
	msgProvideFile        = "Please provide a CSV file for this step."
	msgNoFilesHere        = "This step doesn't take files."
	msgUploadCancelled    = "Upload cancelled. Nothing was imported."
	msgContinuing         = "Okay, moving on."
	msgInFlight           = "I'm still working on your previous request for this step. Please wait for it to finish."
	msgSavedLocally       = "I couldn't reach the server, so this was saved locally. You can retry later from the manual screens."
	msgNoOrganization     = "Your account has no organization yet, so this was saved locally. Set up the organization first, then retry from the manual screens."
	msgNoCredential       = "You have no credential for this session, so this was saved locally. Sign in, then retry from the manual screens."
)

func companyRecorded(name string) string {
	return fmt.Sprintf("Great, %s is set as your organization.", name)
}

func skipAcknowledged(label string) string {
	return fmt.Sprintf("No problem, skipping %s for now.", strings.ToLower(label))
}

func sendingInvitations(n int) string {
	return fmt.Sprintf("Sending %s...", plural(n, "invitation"))
}

func checkingFile(name string) string {
	return fmt.Sprintf("Checking %s...", name)
}

func importingFile(name string) string {
	return fmt.Sprintf("Importing %s...", name)
}

func invitationsSent(n int) string {
	return fmt.Sprintf("Done! Sent %s.", plural(n, "invitation"))
}

func invitationsPartial(b *domain.BatchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Sent %d of %d invitations. %s failed:", b.Succeeded, b.Attempted, plural(len(b.Failed), "invitation"))
	writeFailures(&sb, b.Failed)
	return sb.String()
}

func invitationsFailed(b *domain.BatchResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "None of the %s could be sent:", plural(b.Attempted, "invitation"))
	writeFailures(&sb, b.Failed)
	return sb.String()
}

func writeFailures(sb *strings.Builder, failed []domain.InvitationOutcome) {
	for _, f := range failed {
		who := f.Recipient.Email
		if who == "" {
			who = f.Recipient.Name
		}
		fmt.Fprintf(sb, "\n- %s: %s", who, f.ErrorDetail)
	}
}

func validationFailed(name string, s domain.ImportSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s has %s with errors out of %d. Please fix them and upload again:", name, plural(s.FailureCount, "row"), s.TotalRows)
	writeRowErrors(&sb, s.Errors)
	return sb.String()
}

func validationPassed(name string, s domain.ImportSummary) string {
	return fmt.Sprintf("%s looks good: %s ready to import. Confirm to save them.", name, plural(s.TotalRows, "row"))
}

func importPartial(s domain.ImportSummary) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Imported %d of %d rows. %s failed:", s.SuccessCount, s.TotalRows, plural(s.FailureCount, "row"))
	writeRowErrors(&sb, s.Errors)
	return sb.String()
}

func imported(n int) string {
	return fmt.Sprintf("Imported %s.", plural(n, "row"))
}

func writeRowErrors(sb *strings.Builder, errs []domain.RowError) {
	for _, re := range errs {
		fmt.Fprintf(sb, "\nRow %d: %s", re.Row, re.Message)
	}
}

func completionSummary(collected []string) string {
	if len(collected) == 0 {
		return "Setup complete. Nothing was added yet; you can fill everything in later from the regular screens."
	}
	return "Setup complete! You added: " + strings.Join(collected, ", ") + "."
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
