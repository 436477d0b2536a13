package detections

import (
	"fmt"
	"strings"

	"vigil/core"
	"vigil/detect"
	"vigil/fields"
)

func init() {
	register("aws_iam_access_key_created", newAWSIAMAccessKeyCreated)
}

// newAWSIAMAccessKeyCreated detects successful IAM access key creation.
// Keys grant programmatic access; unexpected creation can indicate a
// persistence attempt. Creating a key for a different user raises the
// severity.
func newAWSIAMAccessKeyCreated() *detect.Unit {
	return &detect.Unit{
		LogTypes: []string{"AWS.CloudTrail"},
		Tags:     []string{"AWS", "Persistence", "Credential Access", "T1098"},

		Rule: func(event core.Event) bool {
			// A null errorCode counts as success, same as an absent one.
			return event.GetString("eventName") == "CreateAccessKey" &&
				event["errorCode"] == nil
		},

		Title: func(event core.Event) string {
			actor := fields.DeepGetString(event, "userIdentity", "arn")
			if actor == "" {
				actor = "unknown"
			}
			target := fields.DeepGetString(event, "requestParameters", "userName")
			if target == "" {
				target = "self"
			}
			return fmt.Sprintf("IAM Access Key Created for %s by %s", target, actor)
		},

		Severity: func(event core.Event) string {
			actorARN := fields.DeepGetString(event, "userIdentity", "arn")
			target := fields.DeepGetString(event, "requestParameters", "userName")

			// No explicit target means the actor created a key for
			// themselves.
			if target == "" {
				return core.SeverityMedium
			}
			if !strings.Contains(actorARN, target) {
				return core.SeverityHigh
			}
			return core.SeverityMedium
		},

		Description: func(event core.Event) string {
			return "An IAM access key was created. Access keys provide programmatic access " +
				"to AWS resources and should be carefully monitored. Verify this key creation " +
				"was authorized and follows your organization's security policies."
		},

		AlertContext: func(event core.Event) map[string]interface{} {
			return map[string]interface{}{
				"actor_arn":     fields.DeepGet(event, "userIdentity", "arn"),
				"actor_type":    fields.DeepGet(event, "userIdentity", "type"),
				"target_user":   fields.DeepGet(event, "requestParameters", "userName"),
				"access_key_id": fields.DeepGet(event, "responseElements", "accessKey", "accessKeyId"),
				"source_ip":     event["sourceIPAddress"],
				"user_agent":    event["userAgent"],
				"event_time":    event["eventTime"],
			}
		},

		Dedup: func(event core.Event) string {
			target := fields.DeepGetString(event, "requestParameters", "userName")
			if target == "" {
				target = "self"
			}
			return "iam_key_created_" + target
		},
	}
}
