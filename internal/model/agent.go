package model

// AgentID identifies one of the three agent roles. The set is closed: audit
// events carrying any other value are rejected at the boundary.
type AgentID string

const (
	// AgentOne reviews an advisor's book of business for renewal alerts.
	AgentOne AgentID = "agent_one"
	// AgentTwo generates ranked product opportunities for a client.
	AgentTwo AgentID = "agent_two"
	// AgentThree answers free-form advisor chat over screen context.
	AgentThree AgentID = "agent_three"
)

// KnownAgentIDs lists the valid roles in canonical order.
var KnownAgentIDs = []AgentID{AgentOne, AgentTwo, AgentThree}

// Valid reports whether the id is one of the three known roles.
func (a AgentID) Valid() bool {
	switch a {
	case AgentOne, AgentTwo, AgentThree:
		return true
	}
	return false
}
