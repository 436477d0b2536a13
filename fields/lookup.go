package fields

import (
	"strconv"
	"strings"
)

// sensitiveActions are AWS API actions whose invocation commonly
// signals persistence or privilege escalation. Keys are lowercased for
// case-insensitive lookup; the set is built once and never mutated.
var sensitiveActions = lowerSet(
	"iam:CreateUser",
	"iam:CreateAccessKey",
	"iam:AttachUserPolicy",
	"iam:AttachRolePolicy",
	"iam:PutUserPolicy",
	"iam:PutRolePolicy",
	"iam:UpdateAssumeRolePolicy",
	"ec2:CreateKeyPair",
	"ec2:ImportKeyPair",
	"lambda:CreateFunction",
	"lambda:UpdateFunctionCode",
	"s3:PutBucketPolicy",
	"s3:PutBucketAcl",
	"kms:ScheduleKeyDeletion",
	"kms:DisableKey",
)

// highRiskPorts are remote-access, lateral-movement, and database
// ports.
var highRiskPorts = map[int]struct{}{
	22: {}, 23: {}, 3389: {}, 5985: {}, 5986: {},
	445: {}, 139: {}, 1433: {}, 3306: {}, 5432: {},
	27017: {}, 6379: {},
}

func lowerSet(values ...string) map[string]struct{} {
	out := make(map[string]struct{}, len(values))
	for _, v := range values {
		out[strings.ToLower(v)] = struct{}{}
	}
	return out
}

// IsSensitiveAction reports whether an AWS action (service:Operation)
// is in the sensitive set, case-insensitively.
func IsSensitiveAction(action string) bool {
	_, ok := sensitiveActions[strings.ToLower(action)]
	return ok
}

// IsHighRiskPort reports whether a port number is high-risk. The port
// may arrive as any JSON scalar; values that do not coerce to an
// integer yield false.
func IsHighRiskPort(port interface{}) bool {
	n, ok := coercePort(port)
	if !ok {
		return false
	}
	_, risky := highRiskPorts[n]
	return risky
}

func coercePort(port interface{}) (int, bool) {
	switch v := port.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		if v != float64(int(v)) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}
