package movement

// DismissalReason enum
type DismissalReason string

const (
	ReasonExpiredContract        DismissalReason = "expired_contract"
	ReasonVoluntarySeparation    DismissalReason = "voluntary_separation"
	ReasonJobAbandonment         DismissalReason = "job_abandonment"
	ReasonDeath                  DismissalReason = "death"
	ReasonClosing                DismissalReason = "closing"
	ReasonOthers                 DismissalReason = "others"
	ReasonAbsenteeism            DismissalReason = "absenteeism"
	ReasonJustifiedTermination   DismissalReason = "termination_of_contract_just"
	ReasonUnjustifiedTermination DismissalReason = "termination_of_contract_unjust"
	ReasonRescission             DismissalReason = "rescission"
)

// SettlementType enum. The zero value means the reason is not set.
type SettlementType string

const (
	SettlementTypeUndefined   SettlementType = ""
	SettlementTypeSettlement  SettlementType = "settlement"
	SettlementTypeLiquidation SettlementType = "liquidation"
)

var settlementTypes = map[DismissalReason]SettlementType{
	ReasonExpiredContract:        SettlementTypeSettlement,
	ReasonVoluntarySeparation:    SettlementTypeSettlement,
	ReasonJobAbandonment:         SettlementTypeSettlement,
	ReasonDeath:                  SettlementTypeSettlement,
	ReasonOthers:                 SettlementTypeSettlement,
	ReasonAbsenteeism:            SettlementTypeSettlement,
	ReasonJustifiedTermination:   SettlementTypeSettlement,
	ReasonClosing:                SettlementTypeLiquidation,
	ReasonUnjustifiedTermination: SettlementTypeLiquidation,
	ReasonRescission:             SettlementTypeLiquidation,
}

// ClassifySettlement maps a dismissal reason to settlement or liquidation.
// Liquidation adds the severance owed when the employer ends the relation
// without cause. Unknown or empty reasons are undefined.
func ClassifySettlement(reason DismissalReason) SettlementType {
	return settlementTypes[reason]
}
