package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo"
	"github.com/stretchr/testify/assert"

	"boltzmon/api/contexts"
	serviceInfo "boltzmon/api/models/constants/service-info"
	"boltzmon/api/models/dtos"
	ligandsMvc "boltzmon/api/mvc/ligands"
	serviceInfoMvc "boltzmon/api/mvc/service-info"
	"boltzmon/api/tests/common"
)

func TestGetServiceInfo(t *testing.T) {
	cfg := common.InitConfig()

	setUpEcho := func(method string, path string) (*contexts.MonitorContext, *httptest.ResponseRecorder) {
		e := echo.New()
		req := httptest.NewRequest(method, path, nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		mc := &contexts.MonitorContext{
			Context:        c,
			Es7Client:      nil, // todo mockup
			Config:         cfg,
			BoltzClient:    nil,
			MonitorService: nil,
		}
		return mc, rec
	}

	getJsonBody := func(rec *httptest.ResponseRecorder) map[string]interface{} {
		// - extract body bytes from response
		body, _ := io.ReadAll(rec.Body)
		// - unmarshal or decode the JSON to a declared empty interface.
		var bodyJson map[string]interface{}
		json.Unmarshal(body, &bodyJson)

		return bodyJson
	}

	t.Run("should return 200 status ok and the service descriptor", func(t *testing.T) {
		//set up
		mc, rec := setUpEcho(http.MethodGet, "/service-info")

		// perform
		serviceInfoMvc.GetServiceInfo(mc)

		// verify response status
		assert.Equal(t, http.StatusOK, rec.Code)

		// verify body
		json := getJsonBody(rec)

		// - detailed
		assert.Equal(t, json["id"].(string), string(serviceInfo.SERVICE_ID))
		assert.Equal(t, json["name"].(string), string(serviceInfo.SERVICE_NAME))
		assert.Equal(t, json["description"].(string), string(serviceInfo.SERVICE_DESCRIPTION))

		monitorBlock := json["monitor"].(map[string]interface{})
		assert.Equal(t, float64(cfg.Monitor.PollIntervalSeconds), monitorBlock["pollIntervalSeconds"].(float64))
		assert.Equal(t, float64(cfg.Monitor.PollAttemptCeiling), monitorBlock["pollAttemptCeiling"].(float64))
	})
}

func TestLigandsValidate(t *testing.T) {
	cfg := common.InitConfig()

	setUpEcho := func(path string, requestBody string) (*contexts.MonitorContext, *httptest.ResponseRecorder) {
		e := echo.New()
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(requestBody))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		mc := &contexts.MonitorContext{
			Context:        c,
			Es7Client:      nil,
			Config:         cfg,
			BoltzClient:    nil,
			MonitorService: nil,
		}
		return mc, rec
	}

	marshalRequest := func(ligandText string) string {
		payload, _ := json.Marshal(dtos.LigandValidationRequestDto{LigandText: ligandText})
		return string(payload)
	}

	t.Run("should accept a small csv and report both ligands valid", func(t *testing.T) {
		mc, rec := setUpEcho("/screening/ligands/validate",
			marshalRequest("Name,SMILES\nAspirin,CC(=O)Oc1ccccc1C(=O)O\nCaffeine,CN1C=NC2=C1C(=O)N(C(=O)N2C)C"))

		ligandsMvc.LigandsValidate(mc)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dtos.LigandValidationResponseDto
		unmarshallingError := json.Unmarshal(rec.Body.Bytes(), &response)
		assert.Nil(t, unmarshallingError)

		assert.Equal(t, 2, response.ValidCount)
		assert.Empty(t, response.LineErrors)
		assert.Equal(t, "Aspirin", response.Ligands[0].Name)
		assert.Equal(t, "Caffeine", response.Ligands[1].Name)
	})

	t.Run("should report per-line errors while keeping the valid rows", func(t *testing.T) {
		mc, rec := setUpEcho("/screening/ligands/validate",
			marshalRequest("Aspirin,CC(=O)Oc1ccccc1C(=O)O\nBroken,C1CC("))

		ligandsMvc.LigandsValidate(mc)

		assert.Equal(t, http.StatusOK, rec.Code)

		var response dtos.LigandValidationResponseDto
		json.Unmarshal(rec.Body.Bytes(), &response)

		assert.Equal(t, 1, response.ValidCount)
		assert.Len(t, response.LineErrors, 1)
		assert.Equal(t, 2, response.LineErrors[0].Line)
	})

	t.Run("should reject a malformed request body", func(t *testing.T) {
		mc, rec := setUpEcho("/screening/ligands/validate", "this is not json")

		ligandsMvc.LigandsValidate(mc)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("should enforce the smaller ceiling for the simple form", func(t *testing.T) {
		var builder strings.Builder
		for i := 0; i < cfg.Monitor.SimpleLigandCap+1; i++ {
			builder.WriteString(fmt.Sprintf("Ligand%d,CCO\n", i))
		}

		mc, rec := setUpEcho("/screening/ligands/validate?form=simple", marshalRequest(builder.String()))

		ligandsMvc.LigandsValidate(mc)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("should allow the same count through the screening form", func(t *testing.T) {
		var builder strings.Builder
		for i := 0; i < cfg.Monitor.SimpleLigandCap+1; i++ {
			builder.WriteString(fmt.Sprintf("Ligand%d,CCO\n", i))
		}

		mc, rec := setUpEcho("/screening/ligands/validate", marshalRequest(builder.String()))

		ligandsMvc.LigandsValidate(mc)

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
