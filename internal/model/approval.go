package model

type ApprovalDecision string

const (
	ApprovalGranted ApprovalDecision = "granted"
	ApprovalDenied  ApprovalDecision = "denied"
	ApprovalRevoked ApprovalDecision = "revoked"
)

type Approval struct {
	PlanID      string           `yaml:"plan_id" json:"plan_id"`
	Decision    ApprovalDecision `yaml:"decision" json:"decision"`
	RequestedAt string           `yaml:"requested_at" json:"requested_at"`
	GrantedAt   *string          `yaml:"granted_at" json:"granted_at"`
	Approver    *string          `yaml:"approver" json:"approver"`
	Note        *string          `yaml:"note" json:"note"`
}

func GrantApproval(planID, approver, note string) Approval {
	now := NowUTC()
	return Approval{
		PlanID:      planID,
		Decision:    ApprovalGranted,
		RequestedAt: now,
		GrantedAt:   &now,
		Approver:    optional(approver),
		Note:        optional(note),
	}
}

func DenyApproval(planID, approver, reason string) Approval {
	now := NowUTC()
	return Approval{
		PlanID:      planID,
		Decision:    ApprovalDenied,
		RequestedAt: now,
		GrantedAt:   &now,
		Approver:    optional(approver),
		Note:        optional(reason),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ApprovalLog is an append-only sequence of approval records; the latest
// record for a plan_id determines its current decision.
type ApprovalLog []Approval

func (l ApprovalLog) Latest(planID string) *Approval {
	for i := len(l) - 1; i >= 0; i-- {
		if l[i].PlanID == planID {
			a := l[i]
			return &a
		}
	}
	return nil
}

func (l ApprovalLog) All(planID string) []Approval {
	var out []Approval
	for _, a := range l {
		if a.PlanID == planID {
			out = append(out, a)
		}
	}
	return out
}

func (l ApprovalLog) IsApproved(planID string) bool {
	latest := l.Latest(planID)
	return latest != nil && latest.Decision == ApprovalGranted && latest.GrantedAt != nil
}

func (l ApprovalLog) IsDenied(planID string) bool {
	latest := l.Latest(planID)
	return latest != nil && latest.Decision == ApprovalDenied
}
