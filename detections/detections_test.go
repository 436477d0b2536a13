package detections

import (
	"testing"

	"vigil/core"
	"vigil/detect"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newCatalogEngine(t *testing.T) *detect.Engine {
	t.Helper()
	registry := detect.NewRegistry()
	RegisterAll(registry)
	require.NotZero(t, registry.Len())
	return detect.NewEngine(registry, 0, zap.NewNop().Sugar())
}

func rootLoginEvent() core.Event {
	return core.Event{
		"eventName":       "ConsoleLogin",
		"userIdentity":    map[string]interface{}{"type": "Root"},
		"sourceIPAddress": "203.0.113.50",
	}
}

func TestRootLoginMatchesAndTitlesSourceIP(t *testing.T) {
	engine := newCatalogEngine(t)
	unit := engine.Registry().Get("aws_root_login")
	require.NotNil(t, unit)

	v := engine.Evaluate(unit, rootLoginEvent())

	assert.True(t, v.Matched)
	assert.Contains(t, v.Title, "203.0.113.50")
	assert.Equal(t, "root_login_203.0.113.50", v.DedupKey)
	assert.NotEmpty(t, v.Description)
	assert.NotEmpty(t, v.Reference)
	assert.NotEmpty(t, v.Runbook)
}

func TestRootLoginSeverityDependsOnMFA(t *testing.T) {
	engine := newCatalogEngine(t)
	unit := engine.Registry().Get("aws_root_login")
	require.NotNil(t, unit)

	withMFA := core.Event{
		"eventName":           "ConsoleLogin",
		"userIdentity":        map[string]interface{}{"type": "Root"},
		"additionalEventData": map[string]interface{}{"MFAUsed": "Yes"},
	}
	v := engine.Evaluate(unit, withMFA)
	require.True(t, v.Matched)
	assert.Equal(t, core.SeverityMedium, v.Severity)

	withMFA["additionalEventData"] = map[string]interface{}{"MFAUsed": "No"}
	v = engine.Evaluate(unit, withMFA)
	require.True(t, v.Matched)
	assert.Equal(t, core.SeverityHigh, v.Severity)
}

func TestRootLoginIgnoresNonRoot(t *testing.T) {
	engine := newCatalogEngine(t)
	unit := engine.Registry().Get("aws_root_login")
	require.NotNil(t, unit)

	v := engine.Evaluate(unit, core.Event{
		"eventName":    "ConsoleLogin",
		"userIdentity": map[string]interface{}{"type": "IAMUser"},
	})
	assert.False(t, v.Matched)

	v = engine.Evaluate(unit, core.Event{"eventName": "DescribeInstances"})
	assert.False(t, v.Matched)
}

func TestAccessKeyCreatedSeverity(t *testing.T) {
	engine := newCatalogEngine(t)
	unit := engine.Registry().Get("aws_iam_access_key_created")
	require.NotNil(t, unit)

	forSelf := core.Event{
		"eventName":    "CreateAccessKey",
		"userIdentity": map[string]interface{}{"arn": "arn:aws:iam::123456789012:user/alice"},
	}
	v := engine.Evaluate(unit, forSelf)
	require.True(t, v.Matched)
	assert.Equal(t, core.SeverityMedium, v.Severity)
	assert.Equal(t, "iam_key_created_self", v.DedupKey)

	forOther := core.Event{
		"eventName":         "CreateAccessKey",
		"userIdentity":      map[string]interface{}{"arn": "arn:aws:iam::123456789012:user/alice"},
		"requestParameters": map[string]interface{}{"userName": "bob"},
	}
	v = engine.Evaluate(unit, forOther)
	require.True(t, v.Matched)
	assert.Equal(t, core.SeverityHigh, v.Severity, "creating a key for another user is worse")
	assert.Contains(t, v.Title, "bob")
}

func TestAccessKeyCreatedSkipsFailedCalls(t *testing.T) {
	engine := newCatalogEngine(t)
	unit := engine.Registry().Get("aws_iam_access_key_created")
	require.NotNil(t, unit)

	v := engine.Evaluate(unit, core.Event{
		"eventName": "CreateAccessKey",
		"errorCode": "AccessDenied",
	})
	assert.False(t, v.Matched)
}

func TestSysmonSuspiciousProcess(t *testing.T) {
	engine := newCatalogEngine(t)
	unit := engine.Registry().Get("sysmon_suspicious_process")
	require.NotNil(t, unit)

	encoded := core.Event{
		"EventID":     float64(1),
		"Image":       `C:\Windows\System32\WindowsPowerShell\v1.0\powershell.exe`,
		"CommandLine": `powershell.exe -EncodedCommand SQBFAFgA`,
		"ParentImage": `C:\Windows\explorer.exe`,
		"Computer":    "WS-0142",
	}
	v := engine.Evaluate(unit, encoded)
	require.True(t, v.Matched)
	assert.Equal(t, core.SeverityHigh, v.Severity, "encoded commands are high severity")
	assert.Contains(t, v.Title, "powershell.exe")
	assert.Equal(t, "suspicious_process_WS-0142_powershell.exe", v.DedupKey)

	officeSpawn := core.Event{
		"EventID":     float64(1),
		"Image":       `C:\Windows\System32\cmd.exe`,
		"CommandLine": `cmd.exe /c whoami`,
		"ParentImage": `C:\Program Files\Microsoft Office\winword.exe`,
	}
	v = engine.Evaluate(unit, officeSpawn)
	require.True(t, v.Matched)
	assert.Equal(t, core.SeverityHigh, v.Severity, "Office spawning a shell is high severity")

	benign := core.Event{
		"EventID":     float64(1),
		"Image":       `C:\Program Files\app\app.exe`,
		"CommandLine": `app.exe --serve`,
		"ParentImage": `C:\Windows\explorer.exe`,
	}
	v = engine.Evaluate(unit, benign)
	assert.False(t, v.Matched)

	networkEvent := core.Event{"EventID": float64(3), "Image": `C:\Windows\System32\cmd.exe`}
	v = engine.Evaluate(unit, networkEvent)
	assert.False(t, v.Matched, "only process creation events are considered")
}

func TestRegisterAllIsStableAndRerunnable(t *testing.T) {
	r1 := detect.NewRegistry()
	r2 := detect.NewRegistry()
	u1 := RegisterAll(r1)
	u2 := RegisterAll(r2)

	require.Equal(t, len(u1), len(u2))
	for i := range u1 {
		assert.Equal(t, u1[i].ID, u2[i].ID)
		assert.True(t, u1[i].Enabled)
		assert.NotNil(t, u1[i].Rule)
	}
}
