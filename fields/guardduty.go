package fields

// GuardDutyContext extracts the commonly alerted-on fields from a
// GuardDuty finding. Absent or misshapen fields come back nil, so the
// result always carries all five keys.
func GuardDutyContext(event map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"finding_type":  DeepGet(event, "detail", "type"),
		"severity":      DeepGet(event, "detail", "severity"),
		"account_id":    DeepGet(event, "detail", "accountId"),
		"region":        DeepGet(event, "detail", "region"),
		"resource_type": DeepGet(event, "detail", "resource", "resourceType"),
	}
}
