package shared

import (
	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
)

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Error   ErrorKind   `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

var JSON = sonic.Config{
	UseNumber:            true,
	EscapeHTML:           false,
	SortMapKeys:          false,
	CompactMarshaler:     true,
	NoQuoteTextMarshaler: true,
	NoNullSliceOrMap:     true,
}.Froze()

var (
	successResponse       = mustMarshal(Response{Code: 200, Message: "Success"})
	createdResponse       = mustMarshal(Response{Code: 201, Message: "Created"})
	notFoundResponse      = mustMarshal(Response{Code: 404, Message: "Not Found", Error: KindNotFound})
	internalErrorResponse = mustMarshal(Response{Code: 500, Message: "Internal Server Error", Error: KindInternal})
)

func mustMarshal(v interface{}) []byte {
	b, _ := JSON.Marshal(v)
	return b
}

func send(c *fiber.Ctx, httpCode int, body []byte) error {
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Status(httpCode).Send(body)
}

func ResponseJSON(c *fiber.Ctx, httpCode int, message string, data interface{}) error {
	if data == nil {
		switch {
		case httpCode == 200 && message == "Success":
			return send(c, httpCode, successResponse)
		case httpCode == 201 && message == "Created":
			return send(c, httpCode, createdResponse)
		}
	}

	body, err := JSON.Marshal(Response{
		Code:    httpCode,
		Message: message,
		Data:    data,
	})
	if err != nil {
		return err
	}
	return send(c, httpCode, body)
}

func ResponseOK(c *fiber.Ctx, data interface{}) error {
	return ResponseJSON(c, fiber.StatusOK, "Success", data)
}

func ResponseCreated(c *fiber.Ctx, data interface{}) error {
	return ResponseJSON(c, fiber.StatusCreated, "Created", data)
}

// ResponseError renders err as the JSON envelope. Internal details are only
// exposed when verbose is set.
func ResponseError(c *fiber.Ctx, err error, verbose bool) error {
	if appErr, ok := GetAppError(err); ok {
		data := appErr.Data
		if data == nil && verbose && appErr.Err != nil {
			data = appErr.Err.Error()
		}
		if data == nil && appErr.Kind == KindNotFound && appErr.Message == "Not Found" {
			return send(c, appErr.StatusCode, notFoundResponse)
		}
		body, mErr := JSON.Marshal(Response{
			Code:    appErr.StatusCode,
			Message: appErr.Message,
			Error:   appErr.Kind,
			Data:    data,
		})
		if mErr != nil {
			return send(c, fiber.StatusInternalServerError, internalErrorResponse)
		}
		return send(c, appErr.StatusCode, body)
	}

	if fiberErr, ok := err.(*fiber.Error); ok {
		kind := KindInternal
		switch {
		case fiberErr.Code == fiber.StatusNotFound:
			kind = KindNotFound
		case fiberErr.Code < 500:
			kind = KindValidation
		}
		body, _ := JSON.Marshal(Response{Code: fiberErr.Code, Message: fiberErr.Message, Error: kind})
		return send(c, fiberErr.Code, body)
	}

	if !verbose {
		return send(c, fiber.StatusInternalServerError, internalErrorResponse)
	}
	body, _ := JSON.Marshal(Response{
		Code:    fiber.StatusInternalServerError,
		Message: "Internal Server Error",
		Error:   KindInternal,
		Data:    err.Error(),
	})
	return send(c, fiber.StatusInternalServerError, body)
}
