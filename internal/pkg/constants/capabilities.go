package constants

// Capabilities gating route groups. The core services only see
// ownership/management; these map session roles to admin surfaces.
const (
	ViewData           = "view_data"
	ManageReservations = "manage_reservations"
	ManageResources    = "manage_resources"
	ViewFinance        = "view_finance"
	RefundPayments     = "refund_payments"
)

// CapabilityRoles maps each capability to roles allowed to perform it.
var CapabilityRoles = map[string][]string{
	ViewData:           {Member, Staff, Admin, Superadmin},
	ManageReservations: {Staff, Admin, Superadmin},
	ManageResources:    {Admin, Superadmin},
	ViewFinance:        {Staff, Admin, Superadmin},
	RefundPayments:     {Admin, Superadmin},
}

// AllowedRole returns true if role is in the list of allowed roles for the capability.
func AllowedRole(capability, role string) bool {
	roles, ok := CapabilityRoles[capability]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
