// Package producers содержит клиентов внешнего сервиса генерации
// анализов. Каждой возможности соответствует свой производитель с
// контрактом "структурированный вход -> структурированный результат
// или его отсутствие": производитель всегда отвечает и никогда не
// считается фатально упавшим.
package producers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/magabrotheeeer/insight-aggregator/internal/models"
)

// Producer — производитель анализа для одной возможности.
// Возврат (nil, nil) означает отказ: секция не попадает в отчёт,
// но запуск синтеза продолжается.
type Producer interface {
	Analyze(ctx context.Context, req models.AnalysisRequest) (*models.AnalysisResult, error)
}

// Client — HTTP клиент внешнего сервиса генерации.
type Client struct {
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиент сервиса генерации анализов.
func NewClient(apiURL, apiKey string) *Client {
	return &Client{
		apiURL:     apiURL,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

func (c *Client) newRequest(ctx context.Context, path string, body any) (*http.Request, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// Analyze отправляет запрос производителю одной возможности.
// Пустой ответ сервиса трактуется как отказ производителя.
func (c *Client) Analyze(ctx context.Context, reqParams models.AnalysisRequest) (*models.AnalysisResult, error) {
	req, err := c.newRequest(ctx, "/analyses/"+reqParams.CapabilityID, reqParams)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("unexpected status: " + resp.Status)
	}

	var result models.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, err
	}
	if result.Body == "" {
		return nil, nil
	}
	result.CapabilityID = reqParams.CapabilityID
	return &result, nil
}
