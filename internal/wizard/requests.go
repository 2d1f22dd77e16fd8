package wizard

import "github.com/magabrotheeeer/insight-aggregator/internal/models"

// BuildRequest собирает запрос производителю одной возможности из
// накопленных входов: каждая возможность получает только тот вход,
// который значится за ней в таблице требований.
func BuildRequest(capabilityID string, inputs models.PackageInputs) models.AnalysisRequest {
	req := models.AnalysisRequest{
		CapabilityID: capabilityID,
		Name:         inputs.Name,
		Gender:       inputs.Gender,
	}

	r, ok := inputRequirements[capabilityID]
	if !ok {
		return req
	}
	switch r.Kind {
	case models.InputBirthData:
		req.Birth = inputs.Birth
	case models.InputImageUpload:
		req.Image = inputs.Images[r.ImageKind]
	case models.InputFreeText:
		req.Text = inputs.FreeText[r.Purpose]
	}
	return req
}
