package detections

import (
	"fmt"

	"vigil/core"
	"vigil/detect"
	"vigil/fields"
)

func init() {
	register("aws_root_login", newAWSRootLogin)
}

// newAWSRootLogin detects console logins by the AWS root account. Root
// usage should be rare and closely watched; MFA lowers the severity.
func newAWSRootLogin() *detect.Unit {
	return &detect.Unit{
		LogTypes: []string{"AWS.CloudTrail"},
		Tags:     []string{"AWS", "Initial Access", "T1078"},

		Rule: func(event core.Event) bool {
			return event.GetString("eventName") == "ConsoleLogin" &&
				fields.DeepGetString(event, "userIdentity", "type") == "Root"
		},

		Title: func(event core.Event) string {
			sourceIP := event.GetString("sourceIPAddress")
			if sourceIP == "" {
				sourceIP = "unknown"
			}
			return fmt.Sprintf("AWS Root Console Login from %s", sourceIP)
		},

		Severity: func(event core.Event) string {
			if fields.DeepGetString(event, "additionalEventData", "MFAUsed") == "Yes" {
				return core.SeverityMedium
			}
			return core.SeverityHigh
		},

		Description: func(event core.Event) string {
			return "The AWS root account was used to log into the AWS Console. " +
				"Root account usage should be minimized and reserved for emergency access only. " +
				"Consider using IAM users with appropriate permissions instead."
		},

		Reference: func(event core.Event) string {
			return "https://docs.aws.amazon.com/IAM/latest/UserGuide/id_root-user.html"
		},

		Runbook: func(event core.Event) string {
			return `1. Verify if this login was authorized
2. Check what actions were performed during the session
3. If unauthorized, immediately rotate root credentials
4. Enable MFA if not already enabled
5. Review CloudTrail for any suspicious activity`
		},

		AlertContext: func(event core.Event) map[string]interface{} {
			return map[string]interface{}{
				"source_ip":     event["sourceIPAddress"],
				"user_agent":    event["userAgent"],
				"aws_region":    event["awsRegion"],
				"mfa_used":      fields.DeepGet(event, "additionalEventData", "MFAUsed"),
				"event_time":    event["eventTime"],
				"console_login": fields.DeepGet(event, "responseElements", "ConsoleLogin"),
			}
		},

		Dedup: func(event core.Event) string {
			sourceIP := event.GetString("sourceIPAddress")
			if sourceIP == "" {
				sourceIP = "unknown"
			}
			return "root_login_" + sourceIP
		},
	}
}
