package services

import "promptvault/models"

// Comparison is a read-only projection of a historical version next to the
// current one. It never mutates the prompt; promoting a version is a
// separate, explicit operation on the version service.
type Comparison struct {
	PromptID   string               `json:"promptId"`
	PromptName string               `json:"promptName"`
	Target     models.PromptVersion `json:"target"`
	Current    models.PromptVersion `json:"current"`
}

type CompareServiceInterface interface {
	Compare(promptID, date string) (Comparison, error)
}

type CompareService struct {
	index PromptIndexInterface
}

func NewCompareService(index PromptIndexInterface) *CompareService {
	return &CompareService{index: index}
}

// Compare returns immutable snapshots of the target version and the current
// version for display side by side.
func (s *CompareService) Compare(promptID, date string) (Comparison, error) {
	prompt, err := s.index.Get(promptID)
	if err != nil {
		return Comparison{}, err
	}

	idx := findVersion(prompt.Versions, date)
	if idx < 0 {
		return Comparison{}, ErrVersionNotFound
	}

	return Comparison{
		PromptID:   prompt.ID,
		PromptName: prompt.Name,
		Target:     prompt.Versions[idx],
		Current:    prompt.Versions[0],
	}, nil
}
