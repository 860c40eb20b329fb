package tasks

import (
	"fmt"
	"strings"

	"github.com/desertthunder/songreqs/internal/models"
	"github.com/desertthunder/songreqs/internal/shared"
	"github.com/samber/lo"
)

// DefaultRewardName is the reward title looked up when none is configured.
const DefaultRewardName = "song request bot"

// RewardNotFoundError reports a missing reward along with the titles the channel does have.
type RewardNotFoundError struct {
	Name      string
	Available []string
}

func (e *RewardNotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("%v: %q (channel has no custom rewards)", shared.ErrRewardNotFound, e.Name)
	}
	return fmt.Sprintf("%v: %q (available: %s)", shared.ErrRewardNotFound, e.Name, strings.Join(e.Available, ", "))
}

func (e *RewardNotFoundError) Unwrap() error {
	return shared.ErrRewardNotFound
}

// FindReward returns the reward whose title equals name exactly.
func FindReward(rewards []models.Reward, name string) (models.Reward, error) {
	if r, ok := lo.Find(rewards, func(r models.Reward) bool { return r.Title == name }); ok {
		return r, nil
	}

	return models.Reward{}, &RewardNotFoundError{
		Name:      name,
		Available: lo.Map(rewards, func(r models.Reward, _ int) string { return r.Title }),
	}
}
