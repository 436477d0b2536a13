package detections

import (
	"fmt"
	"strings"

	"vigil/core"
	"vigil/detect"
	"vigil/fields"
)

func init() {
	register("sysmon_suspicious_process", newSysmonSuspiciousProcess)
}

// Suspicious binaries, command-line fragments, and parent processes for
// living-off-the-land detection. Patterns are lowercase; inputs are
// lowered before matching.
var (
	suspiciousProcesses = []string{
		`*\powershell.exe`,
		`*\cmd.exe`,
		`*\wscript.exe`,
		`*\cscript.exe`,
		`*\mshta.exe`,
		`*\regsvr32.exe`,
		`*\rundll32.exe`,
		`*\certutil.exe`,
		`*\bitsadmin.exe`,
		`*\msiexec.exe`,
	}

	suspiciousCommands = []string{
		"*-enc*",
		"*-encodedcommand*",
		"*downloadstring*",
		"*invoke-expression*",
		"*iex*",
		"*bypass*",
		"*hidden*",
		"*-nop*",
		"*-w hidden*",
		"*frombase64string*",
	}

	suspiciousParents = []string{
		`*\winword.exe`,
		`*\excel.exe`,
		`*\outlook.exe`,
		`*\powerpnt.exe`,
		`*\mshta.exe`,
	}

	officeApps = []string{"winword", "excel", "outlook", "powerpnt"}
)

// newSysmonSuspiciousProcess detects commonly abused binaries on Sysmon
// process-creation events: a suspicious image with a suspicious command
// line, or a suspicious Office parent spawning one.
func newSysmonSuspiciousProcess() *detect.Unit {
	return &detect.Unit{
		LogTypes: []string{"Custom.Sysmon"},
		Tags:     []string{"Endpoint", "Execution", "Defense Evasion", "T1059"},

		Rule: func(event core.Event) bool {
			if !isProcessCreate(event) {
				return false
			}

			image := strings.ToLower(event.GetString("Image"))
			commandLine := strings.ToLower(event.GetString("CommandLine"))
			parentImage := strings.ToLower(event.GetString("ParentImage"))

			suspiciousProcess := fields.PatternMatchAny(image, suspiciousProcesses)
			suspiciousCommand := fields.PatternMatchAny(commandLine, suspiciousCommands)
			suspiciousParent := fields.PatternMatchAny(parentImage, suspiciousParents)

			if suspiciousProcess && suspiciousCommand {
				return true
			}
			return suspiciousParent && suspiciousProcess
		},

		Title: func(event core.Event) string {
			return fmt.Sprintf("Suspicious Process: %s spawned by %s",
				baseName(event.GetString("Image")),
				baseName(event.GetString("ParentImage")))
		},

		Severity: func(event core.Event) string {
			commandLine := strings.ToLower(event.GetString("CommandLine"))
			if strings.Contains(commandLine, "encodedcommand") || strings.Contains(commandLine, "-enc") {
				return core.SeverityHigh
			}
			parentImage := strings.ToLower(event.GetString("ParentImage"))
			for _, app := range officeApps {
				if strings.Contains(parentImage, app) {
					return core.SeverityHigh
				}
			}
			return core.SeverityMedium
		},

		Description: func(event core.Event) string {
			return "A potentially suspicious process execution was detected. " +
				"This may indicate malicious activity such as malware execution, " +
				"living-off-the-land attacks, or unauthorized script execution. " +
				"Review the command line and parent process for legitimacy."
		},

		AlertContext: func(event core.Event) map[string]interface{} {
			return map[string]interface{}{
				"image":               event["Image"],
				"command_line":        event["CommandLine"],
				"parent_image":        event["ParentImage"],
				"parent_command_line": event["ParentCommandLine"],
				"user":                event["User"],
				"process_id":          event["ProcessId"],
				"parent_process_id":   event["ParentProcessId"],
				"current_directory":   event["CurrentDirectory"],
				"utc_time":            event["UtcTime"],
				"hostname":            event["Computer"],
			}
		},

		Dedup: func(event core.Event) string {
			image := baseName(event.GetString("Image"))
			host := event.GetString("Computer")
			if host == "" {
				host = "unknown"
			}
			return fmt.Sprintf("suspicious_process_%s_%s", host, image)
		},
	}
}

// isProcessCreate checks for Sysmon Event ID 1, tolerating the numeric
// types JSON decoding produces.
func isProcessCreate(event core.Event) bool {
	switch id := event["EventID"].(type) {
	case float64:
		return id == 1
	case int:
		return id == 1
	}
	return false
}

func baseName(image string) string {
	if image == "" {
		return "unknown"
	}
	if i := strings.LastIndex(image, `\`); i >= 0 {
		return image[i+1:]
	}
	return image
}
