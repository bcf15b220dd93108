package service

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/antonio-alexander/go-employees/internal"
)

var errEmployeeMissing = errors.New("employee missing from request")

func getCorrelationId(request *http.Request) string {
	if correlationId := request.Header.Get("Correlation-Id"); correlationId != "" {
		return correlationId
	}
	return internal.GenerateId()
}

func handleResponse(writer http.ResponseWriter, err error, item any) {
	var bytes []byte

	if err == nil {
		if item == nil {
			writer.WriteHeader(http.StatusNoContent)
			return
		}
		bytes, err = json.Marshal(item)
	}
	if err != nil {
		var e struct {
			Error string `json:"error"`
		}

		e.Error = err.Error()
		bytes, _ = json.Marshal(&e)
		writer.Header().Set("Content-Type", "application/json; charset=utf-8")
		writer.WriteHeader(http.StatusInternalServerError)
		_, _ = writer.Write(bytes)
		return
	}
	writer.Header().Set("Content-Type", "application/json; charset=utf-8")
	_, _ = writer.Write(bytes)
}
