// Package validate implements the two-stage validation contract of the
// intake pipeline. Both stages are pure functions of the submission:
// no I/O, deterministic for identical input.
//
// Schema validates structure (presence, lengths); Business validates
// semantic rules that structure cannot express. The two stages fail with
// distinct error types so the transport layer can answer 422 vs 400.
package validate

import (
	"fmt"
	"strings"

	"priorauth/internal/intake/models"
)

// Structural limits mirror the submission contract.
const (
	npiLength           = 10
	maxMemberIDLen      = 50
	maxDiagnosisCodeLen = 20
	maxServiceLen       = 100
)

// Rule names used as the failure_type metric label and in audit messages.
const (
	RuleRequiredFields  = "missing_required_field"
	RuleMemberIDLength  = "member_id_too_long"
	RuleNPILength       = "invalid_npi_length"
	RuleDiagnosisLength = "diagnosis_code_too_long"
	RuleServiceLength   = "requested_service_too_long"
	RuleNPIFormat       = "invalid_npi_format"
)

// SchemaError reports structural violations with the machine-readable list
// of offending fields.
type SchemaError struct {
	Rule   string
	Fields []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", e.Rule, strings.Join(e.Fields, ", "))
}

// ViolatedFields returns the fields that failed structural checks.
func (e *SchemaError) ViolatedFields() []string {
	return e.Fields
}

// BusinessError reports a violated semantic rule.
type BusinessError struct {
	Rule    string
	Message string
}

func (e *BusinessError) Error() string {
	return e.Message
}

// Schema checks presence of the four required fields and their structural
// constraints. Fields are enumerated explicitly rather than introspected.
func Schema(sub models.Submission) *SchemaError {
	var missing []string
	if strings.TrimSpace(sub.MemberID) == "" {
		missing = append(missing, "member_id")
	}
	if strings.TrimSpace(sub.ProviderNPI) == "" {
		missing = append(missing, "provider_npi")
	}
	if strings.TrimSpace(sub.DiagnosisCode) == "" {
		missing = append(missing, "diagnosis_code")
	}
	if strings.TrimSpace(sub.RequestedService) == "" {
		missing = append(missing, "requested_service")
	}
	if len(missing) > 0 {
		return &SchemaError{Rule: RuleRequiredFields, Fields: missing}
	}

	if len(sub.MemberID) > maxMemberIDLen {
		return &SchemaError{Rule: RuleMemberIDLength, Fields: []string{"member_id"}}
	}
	if len(sub.ProviderNPI) != npiLength {
		return &SchemaError{Rule: RuleNPILength, Fields: []string{"provider_npi"}}
	}
	if len(sub.DiagnosisCode) > maxDiagnosisCodeLen {
		return &SchemaError{Rule: RuleDiagnosisLength, Fields: []string{"diagnosis_code"}}
	}
	if len(sub.RequestedService) > maxServiceLen {
		return &SchemaError{Rule: RuleServiceLength, Fields: []string{"requested_service"}}
	}
	return nil
}

// Business checks semantic rules on a structurally valid submission.
// Currently: the provider NPI body must consist only of digits.
func Business(sub models.Submission) *BusinessError {
	for _, r := range sub.ProviderNPI {
		if r < '0' || r > '9' {
			return &BusinessError{
				Rule:    RuleNPIFormat,
				Message: fmt.Sprintf("provider NPI must be exactly %d digits", npiLength),
			}
		}
	}
	return nil
}
