package fields

import "github.com/aws/aws-sdk-go/aws/arn"

// ARN is a parsed AWS resource name. Only the first five colons are
// delimiters; the resource segment keeps any embedded colons.
type ARN struct {
	Partition string `json:"partition"`
	Service   string `json:"service"`
	Region    string `json:"region"`
	Account   string `json:"account"`
	Resource  string `json:"resource"`
}

// ParseARN splits an identifier of the form
// arn:partition:service:region:account:resource. It returns false for
// anything that does not carry the arn: scheme with six segments.
func ParseARN(s string) (*ARN, bool) {
	parsed, err := arn.Parse(s)
	if err != nil {
		return nil, false
	}
	return &ARN{
		Partition: parsed.Partition,
		Service:   parsed.Service,
		Region:    parsed.Region,
		Account:   parsed.AccountID,
		Resource:  parsed.Resource,
	}, true
}
