package boltz

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"time"

	"github.com/Jeffail/gabs"

	"boltzmon/api/models"
	batchStatus "boltzmon/api/models/constants/batch-status"
)

/*
	HTTP client for the Boltz-2 prediction backend. The backend is
	consumed as an opaque JSON API; result and status payloads are kept
	loose (gabs / generic maps) until normalization.
*/

type Client struct {
	BaseUrl    string
	ModelId    string
	HttpClient *http.Client
}

func NewClient(cfg *models.Config) *Client {
	return &Client{
		BaseUrl: cfg.Boltz.Url,
		ModelId: cfg.Boltz.ModelId,
		HttpClient: &http.Client{
			Timeout: time.Duration(cfg.Boltz.RequestTimeoutSeconds) * time.Second,
		},
	}
}

// NetworkError : the request never produced an HTTP response
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s : %v", e.Op, e.Err)
}
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// ApiError : the backend responded with a non-2xx status
type ApiError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("api error during %s : status %d : %s", e.Op, e.StatusCode, e.Body)
}

// SubmitBatch issues the single batch-creation POST. There is no
// automatic retry here; a dropped submission is resubmitted by the user.
func (c *Client) SubmitBatch(ctx context.Context, submission *models.BatchSubmission) (string, error) {
	payload, marshallErr := json.Marshal(submission)
	if marshallErr != nil {
		return "", marshallErr
	}

	url := fmt.Sprintf("%s/api/v1/predict/batch", c.BaseUrl)
	request, _ := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(payload))
	request.Header.Set("Content-Type", "application/json")

	response, responseErr := c.HttpClient.Do(request)
	if responseErr != nil {
		return "", &NetworkError{Op: "batch submission", Err: responseErr}
	}
	defer response.Body.Close()

	responseBody, bodyErr := ioutil.ReadAll(response.Body)
	if bodyErr != nil {
		return "", &NetworkError{Op: "batch submission", Err: bodyErr}
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return "", &ApiError{Op: "batch submission", StatusCode: response.StatusCode, Body: string(responseBody)}
	}

	jsonParsed, parseErr := gabs.ParseJSON(responseBody)
	if parseErr != nil {
		return "", fmt.Errorf("parsing batch submission response: %w", parseErr)
	}

	// the id key has drifted across backend versions
	for _, path := range []string{"batch_id", "batchId", "id"} {
		if jsonParsed.ExistsP(path) {
			if batchId, ok := jsonParsed.Path(path).Data().(string); ok && batchId != "" {
				return batchId, nil
			}
		}
	}

	return "", fmt.Errorf("batch submission response carried no batch id : %s", string(responseBody))
}

// GetBatchStatus fetches one full status snapshot.
func (c *Client) GetBatchStatus(ctx context.Context, batchId string) (*models.BatchStatus, error) {
	url := fmt.Sprintf("%s/api/v1/batches/%s", c.BaseUrl, batchId)

	responseBody, requestErr := c.getBytes(ctx, "batch status poll", url)
	if requestErr != nil {
		return nil, requestErr
	}

	var status models.BatchStatus
	if unmarshallErr := json.Unmarshal(responseBody, &status); unmarshallErr != nil {
		return nil, fmt.Errorf("parsing batch status response: %w", unmarshallErr)
	}
	if status.BatchId == "" {
		status.BatchId = batchId
	}
	status.Status = batchStatus.CastToBatchStatus(string(status.Status))

	return &status, nil
}

// FetchBatchResults pulls every per-job result page for a batch,
// preferring the enhanced endpoint and falling back to the plain one
// when the backend does not serve it.
func (c *Client) FetchBatchResults(ctx context.Context, batchId string, pageSize int) ([]map[string]interface{}, error) {
	if pageSize <= 0 {
		pageSize = 100
	}

	var allResults []map[string]interface{}
	endpoints := []string{"enhanced-results", "results"}

	for page := 1; ; page++ {
		var pageResults []map[string]interface{}
		var lastErr error

		// fallback chaining across endpoint versions on any non-2xx
		for _, endpoint := range endpoints {
			url := fmt.Sprintf("%s/api/v3/batches/%s/%s?page=%d&page_size=%d&include_raw_modal=true",
				c.BaseUrl, batchId, endpoint, page, pageSize)

			responseBody, requestErr := c.getBytes(ctx, "batch results fetch", url)
			if requestErr != nil {
				lastErr = requestErr
				continue
			}

			parsed, parseErr := parseResultsPage(responseBody)
			if parseErr != nil {
				lastErr = parseErr
				continue
			}

			pageResults = parsed
			lastErr = nil
			break
		}

		if lastErr != nil {
			// a failed first page is a failed fetch; a failed later page
			// ends pagination with what was already gathered
			if page == 1 {
				return nil, lastErr
			}
			fmt.Printf("[%s] - Results page %d failed, returning %d gathered results : %v\n",
				time.Now(), page, len(allResults), lastErr)
			return allResults, nil
		}

		allResults = append(allResults, pageResults...)
		if len(pageResults) < pageSize {
			return allResults, nil
		}
	}
}

// DownloadJobCif retrieves one structure file, trying the batch-scoped
// v3 endpoint first and the older job-scoped v2 endpoint second.
func (c *Client) DownloadJobCif(ctx context.Context, batchId string, jobId string) ([]byte, error) {
	urls := []string{
		fmt.Sprintf("%s/api/v3/batches/%s/jobs/%s/download/cif", c.BaseUrl, batchId, jobId),
		fmt.Sprintf("%s/api/v2/jobs/%s/download/cif", c.BaseUrl, jobId),
	}

	var lastErr error
	for _, url := range urls {
		fileBytes, requestErr := c.getBytes(ctx, "cif download", url)
		if requestErr == nil {
			return fileBytes, nil
		}
		lastErr = requestErr
	}

	return nil, lastErr
}

func (c *Client) getBytes(ctx context.Context, op string, url string) ([]byte, error) {
	request, _ := http.NewRequestWithContext(ctx, "GET", url, nil)

	response, responseErr := c.HttpClient.Do(request)
	if responseErr != nil {
		return nil, &NetworkError{Op: op, Err: responseErr}
	}
	defer response.Body.Close()

	responseBody, bodyErr := ioutil.ReadAll(response.Body)
	if bodyErr != nil {
		return nil, &NetworkError{Op: op, Err: bodyErr}
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &ApiError{Op: op, StatusCode: response.StatusCode, Body: string(responseBody)}
	}

	return responseBody, nil
}

// parseResultsPage accepts the handful of envelope shapes the results
// endpoints have used: {"results": [...]}, {"jobs": [...]}, or a bare
// top-level array.
func parseResultsPage(responseBody []byte) ([]map[string]interface{}, error) {
	// bare array first
	var bareArray []map[string]interface{}
	if err := json.Unmarshal(responseBody, &bareArray); err == nil {
		return bareArray, nil
	}

	jsonParsed, parseErr := gabs.ParseJSON(responseBody)
	if parseErr != nil {
		return nil, fmt.Errorf("parsing results page: %w", parseErr)
	}

	for _, path := range []string{"results", "jobs", "data"} {
		if !jsonParsed.ExistsP(path) {
			continue
		}
		children, childrenErr := jsonParsed.Path(path).Children()
		if childrenErr != nil {
			continue
		}
		results := make([]map[string]interface{}, 0, len(children))
		for _, child := range children {
			if entry, ok := child.Data().(map[string]interface{}); ok {
				results = append(results, entry)
			}
		}
		return results, nil
	}

	return nil, fmt.Errorf("results page carried no recognizable result array")
}
