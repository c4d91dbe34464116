package common

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"os"
	"path"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	yaml "gopkg.in/yaml.v2"

	"boltzmon/api/models"
	"boltzmon/api/models/dtos"
)

const (
	ServiceInfoPath     string = "%s/service-info"
	LigandsValidatePath string = "%s/screening/ligands/validate%s"
	BatchesPath         string = "%s/screening/batches"
)

func InitConfig() *models.Config {
	var cfg models.Config

	// get this file's path
	_, filename, _, _ := runtime.Caller(0)
	folderpath := path.Dir(filename)

	// retrieve common's test.config
	f, err := os.Open(fmt.Sprintf("%s/test.config.yml", folderpath))
	if err != nil {
		processError(err)
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	err = decoder.Decode(&cfg)
	if err != nil {
		processError(err)
	}

	if cfg.Debug {
		http.DefaultTransport.(*http.Transport).TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	return &cfg
}

func processError(err error) {
	fmt.Println(err)
	os.Exit(2)
}

func GetServiceInfo(_t *testing.T, _cfg *models.Config) map[string]interface{} {
	request, _ := http.NewRequest("GET", fmt.Sprintf(ServiceInfoPath, _cfg.Api.Url), nil)

	client := &http.Client{}
	response, responseErr := client.Do(request)
	assert.Nil(_t, responseErr)

	defer response.Body.Close()

	shouldBe := 200
	assert.Equal(_t, shouldBe, response.StatusCode, fmt.Sprintf("Error -- Api GET / Status: %s ; Should be %d", response.Status, shouldBe))

	respBody, respBodyErr := ioutil.ReadAll(response.Body)
	assert.Nil(_t, respBodyErr)

	var respJson map[string]interface{}
	jsonUnmarshallingError := json.Unmarshal(respBody, &respJson)
	assert.Nil(_t, jsonUnmarshallingError)

	return respJson
}

// ValidateLigands posts a delimited ligand blob to a running instance
// and returns the decoded validation response.
func ValidateLigands(ligandText string, queryString string, ignoreStatusCode bool,
	_t *testing.T, _cfg *models.Config) dtos.LigandValidationResponseDto {

	payload, _ := json.Marshal(dtos.LigandValidationRequestDto{LigandText: ligandText})

	url := fmt.Sprintf(LigandsValidatePath, _cfg.Api.Url, queryString)
	fmt.Printf("Calling %s\n", url)

	request, _ := http.NewRequest("POST", url, bytes.NewReader(payload))
	request.Header.Set("Content-Type", "application/json")

	client := &http.Client{}
	response, responseErr := client.Do(request)
	assert.Nil(_t, responseErr)

	defer response.Body.Close()

	if !ignoreStatusCode {
		shouldBe := 200
		assert.Equal(_t, shouldBe, response.StatusCode, fmt.Sprintf("Error -- Api POST %s Status: %s ; Should be %d", url, response.Status, shouldBe))
	}

	respBody, respBodyErr := ioutil.ReadAll(response.Body)
	assert.Nil(_t, respBodyErr)

	var respDto dtos.LigandValidationResponseDto
	jsonUnmarshallingError := json.Unmarshal(respBody, &respDto)
	assert.Nil(_t, jsonUnmarshallingError)

	return respDto
}
