package decompose

import (
	"fmt"

	"github.com/hivemindlab/swarm/pkg/models"
)

// roleOrder is the order in which non-synthesizer roles are added as the
// swarm grows. A swarm of size n takes the first n-1 roles plus the
// synthesizer, so every size tier has a fixed, deterministic role set.
var roleOrder = []models.Role{
	models.RoleExplorer,
	models.RoleDepthAnalyst,
	models.RoleVerifier,
	models.RoleTrendAnalyst,
	models.RoleDomainExpert,
	models.RoleCriticalReviewer,
}

// roleTiers fixes the priority tier per role. Tier 1 is primary research,
// tier 2 verification/trends, tier 3 synthesis (always last).
var roleTiers = map[models.Role]int{
	models.RoleExplorer:         1,
	models.RoleDepthAnalyst:     1,
	models.RoleDomainExpert:     1,
	models.RoleCriticalReviewer: 1,
	models.RoleVerifier:         2,
	models.RoleTrendAnalyst:     2,
	models.RoleSynthesizer:      3,
}

// roleTimeWeights are the base fractional shares of the total time budget.
// The two expansion roles carry a 0.10 base weight; whenever any role is
// absent the present weights are renormalized to sum to 1.0.
var roleTimeWeights = map[models.Role]float64{
	models.RoleExplorer:         0.20,
	models.RoleDepthAnalyst:     0.30,
	models.RoleVerifier:         0.20,
	models.RoleTrendAnalyst:     0.15,
	models.RoleSynthesizer:      0.15,
	models.RoleDomainExpert:     0.10,
	models.RoleCriticalReviewer: 0.10,
}

// rolePromptTemplates give each role its research instruction. The task
// text and depth are interpolated when the plan is built.
var rolePromptTemplates = map[models.Role]string{
	models.RoleExplorer:         "Survey the topic broadly and map the landscape of relevant facts, actors, and open questions.\n\nTask: %s\nDepth: %d/10",
	models.RoleDepthAnalyst:     "Select the most consequential aspects of the topic and analyze them in depth, citing concrete evidence.\n\nTask: %s\nDepth: %d/10",
	models.RoleVerifier:         "Cross-check the central claims likely to arise from this topic and flag anything unverifiable or contradictory.\n\nTask: %s\nDepth: %d/10",
	models.RoleTrendAnalyst:     "Identify temporal trends, inflection points, and plausible trajectories relevant to the topic.\n\nTask: %s\nDepth: %d/10",
	models.RoleDomainExpert:     "Apply specialized domain knowledge to the topic; surface constraints and terminology an outsider would miss.\n\nTask: %s\nDepth: %d/10",
	models.RoleCriticalReviewer: "Challenge the likely consensus on this topic; enumerate weaknesses, risks, and counter-arguments.\n\nTask: %s\nDepth: %d/10",
	models.RoleSynthesizer:      "Merge the findings of all prior workers into one coherent report. Note explicitly any worker outputs that are missing or failed.\n\nTask: %s\nDepth: %d/10",
}

// rolesForSize returns the fixed role set for a swarm of the given size.
// The synthesizer is always present and always last.
func rolesForSize(size int) ([]models.Role, error) {
	if size < MinSwarmSize || size > MaxSwarmSize {
		return nil, fmt.Errorf("swarm size %d outside [%d,%d]", size, MinSwarmSize, MaxSwarmSize)
	}
	roles := make([]models.Role, 0, size)
	roles = append(roles, roleOrder[:size-1]...)
	roles = append(roles, models.RoleSynthesizer)
	return roles, nil
}

// timeShares returns the renormalized fraction of the total budget for
// each present role. The returned shares sum to 1.0.
func timeShares(roles []models.Role) map[models.Role]float64 {
	total := 0.0
	for _, r := range roles {
		total += roleTimeWeights[r]
	}
	shares := make(map[models.Role]float64, len(roles))
	for _, r := range roles {
		shares[r] = roleTimeWeights[r] / total
	}
	return shares
}
