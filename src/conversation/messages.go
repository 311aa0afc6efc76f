package conversation

// Messages is every user-facing text. Fields ending in a format verb are used
// with fmt.Sprintf. Any field can be overridden from YAML.
type Messages struct {
	Start             string `yaml:"start"`
	Cancelled         string `yaml:"cancelled"`
	NothingToCancel   string `yaml:"nothing_to_cancel"`
	Denied            string `yaml:"denied"`
	InternalError     string `yaml:"internal_error"`
	NotOwnerRestrict  string `yaml:"not_owner_restrict"`
	NotOwnerRelease   string `yaml:"not_owner_release"`
	NotOwnerEnable    string `yaml:"not_owner_enable"`
	Restricted        string `yaml:"restricted"`
	Unrestricted      string `yaml:"unrestricted"`
	HandlerEnabled    string `yaml:"handler_enabled"`
	HandlerUnknown    string `yaml:"handler_unknown"`
	HandlerMissing    string `yaml:"handler_missing"`
	FetchFailed       string `yaml:"fetch_failed"`
	ExtractionStarted string `yaml:"extraction_started"`
	ExtractionDone    string `yaml:"extraction_done"`
	NoContent         string `yaml:"no_content"`
	DeliveryFailed    string `yaml:"delivery_failed"`

	PW  PWMessages  `yaml:"pw"`
	KGS KGSMessages `yaml:"kgs"`
}

type PWMessages struct {
	AskToken          string `yaml:"ask_token"`
	FetchingBatches   string `yaml:"fetching_batches"`
	InvalidToken      string `yaml:"invalid_token"`
	NoBatches         string `yaml:"no_batches"`
	BatchesHeader     string `yaml:"batches_header"`
	BatchLine         string `yaml:"batch_line"`
	AskBatchID        string `yaml:"ask_batch_id"`
	InvalidBatchID    string `yaml:"invalid_batch_id"`
	NoSubjects        string `yaml:"no_subjects"`
	SubjectsHeader    string `yaml:"subjects_header"`
	SubjectLine       string `yaml:"subject_line"`
	AskSubjectIDs     string `yaml:"ask_subject_ids"`
	InvalidSubjectIDs string `yaml:"invalid_subject_ids"`
	NoContentSubject  string `yaml:"no_content_subject"`
	SubjectFailed     string `yaml:"subject_failed"`
	UserCaption       string `yaml:"user_caption"`
	AuditCaption      string `yaml:"audit_caption"`
}

type KGSMessages struct {
	Welcome        string `yaml:"welcome"`
	InvalidChoice  string `yaml:"invalid_choice"`
	AskUserID      string `yaml:"ask_user_id"`
	AskPassword    string `yaml:"ask_password"`
	AskToken       string `yaml:"ask_token"`
	LoginFailed    string `yaml:"login_failed"`
	InvalidToken   string `yaml:"invalid_token"`
	NoBatches      string `yaml:"no_batches"`
	LoginSuccess   string `yaml:"login_success"`
	TokenEcho      string `yaml:"token_echo"`
	BatchesHeader  string `yaml:"batches_header"`
	BatchLine      string `yaml:"batch_line"`
	AskBatchID     string `yaml:"ask_batch_id"`
	InvalidBatchID string `yaml:"invalid_batch_id"`
	LessonsFailed  string `yaml:"lessons_failed"`
	Caption        string `yaml:"caption"`
}

// DefaultMessages returns the built-in catalog
func DefaultMessages() Messages {
	return Messages{
		Start: "Hello! I extract batch contents into a text file.\n\n" +
			"Commands:\n" +
			"/pw - PW content\n" +
			"/kgs - Khan Global Studies content\n" +
			"/cancel - stop the current extraction",
		Cancelled:         "Cancelled.",
		NothingToCancel:   "Nothing to cancel.",
		Denied:            "You are not authorized to use this command right now.",
		InternalError:     "An error occurred. Please try again later.",
		NotOwnerRestrict:  "You are not authorized to enable owner-only access.",
		NotOwnerRelease:   "You are not authorized to disable owner-only access.",
		NotOwnerEnable:    "You are not authorized to enable handlers.",
		Restricted:        "Owner-only access enabled. All handlers are now restricted to the owner.",
		Unrestricted:      "Owner-only access disabled. All handlers are now accessible to everyone.",
		HandlerEnabled:    "Handler '%s' is now enabled for everyone.",
		HandlerUnknown:    "Handler '%s' does not exist.",
		HandlerMissing:    "Please provide a handler name to enable (e.g., /on pw or /on kgs).",
		FetchFailed:       "Failed to fetch data. Please try again later.",
		ExtractionStarted: "Link extraction started. Please wait...",
		ExtractionDone:    "Extraction completed successfully!",
		NoContent:         "No content found.",
		DeliveryFailed:    "Error sending file: %v",

		PW: PWMessages{
			AskToken:          "Send your PW authentication token:",
			FetchingBatches:   "Fetching your batches. Please wait...",
			InvalidToken:      "Invalid or expired token. Please provide a valid token.",
			NoBatches:         "No batches found. Please check your token.",
			BatchesHeader:     "Your batches:\n\n",
			BatchLine:         "Batch ID: ```%s```\nBatch Name: ```%s```\nPrice: ```%s```\n\n",
			AskBatchID:        "Send the Batch ID to proceed:",
			InvalidBatchID:    "Invalid Batch ID! Please send a single ID without spaces.",
			NoSubjects:        "No subjects found for this batch.",
			SubjectsHeader:    "Subjects found:\n",
			SubjectLine:       "%s: %s\n",
			AskSubjectIDs:     "\nSend the Subject ID(s) to fetch contents (separate multiple IDs with '&'):",
			InvalidSubjectIDs: "Please send at least one Subject ID (separate multiple IDs with '&').",
			NoContentSubject:  "No content found for subject ID %s.",
			SubjectFailed:     "Failed to fetch contents for subject ID %s.",
			UserCaption:       "Contents for %s.",
			AuditCaption:      "Contents for %s saved and sent to the user.",
		},
		KGS: KGSMessages{
			Welcome: "Welcome to the exam extractor!\n\n" +
				"Choose login method:\n" +
				"1. Login with ID and password\n" +
				"2. Login with token\n\n" +
				"Please enter 1 or 2:",
			InvalidChoice:  "Invalid choice! Please enter 1 or 2.",
			AskUserID:      "Please enter your User ID:",
			AskPassword:    "Please enter your Password:",
			AskToken:       "Please enter your Token:",
			LoginFailed:    "Login failed! Please check your credentials.",
			InvalidToken:   "Failed to fetch batches. Please check your credentials.",
			NoBatches:      "No batches found for this account.",
			LoginSuccess:   "Login successful!\n\n",
			TokenEcho:      "Auth token: ```%s```\n\n",
			BatchesHeader:  "Available batches:\n\n",
			BatchLine:      "Batch Name: ```%s```\nBatch ID: ```%s```\nPrice: ```%s```\n\n",
			AskBatchID:     "\nPlease enter the Batch ID to proceed:",
			InvalidBatchID: "Invalid Batch ID! Please try again.",
			LessonsFailed:  "Failed to fetch lessons. Please try again.",
			Caption:        "Here's your extracted content!\n\nBatch name: %s",
		},
	}
}
