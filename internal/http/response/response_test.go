package response

import (
	"testing"

	"github.com/go-playground/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOKWithData(t *testing.T) {
	data := map[string]string{"status": "paid"}
	resp := OKWithData(data)

	assert.Equal(t, StatusOK, resp.Status)
	assert.Empty(t, resp.Error)
	assert.Equal(t, data, resp.Data)
}

func TestError(t *testing.T) {
	resp := Error("something went wrong")

	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "something went wrong", resp.Error)
	assert.Nil(t, resp.Data)
}

func TestValidationError(t *testing.T) {
	type item struct {
		State string `validate:"oneof=purchased failed"`
	}
	type request struct {
		ProductID string `validate:"required"`
		Items     []item `validate:"min=1"`
		Other     []item `validate:"dive"`
		Code      string `validate:"numeric"`
	}

	err := validator.New().Struct(request{
		Other: []item{{State: "refunded"}},
		Code:  "abc",
	})
	require.Error(t, err)

	resp := ValidationError(err.(validator.ValidationErrors))

	assert.Equal(t, StatusError, resp.Status)
	assert.Contains(t, resp.Error, "field ProductID is a required field")
	assert.Contains(t, resp.Error, "field Items must contain at least 1 item(s)")
	assert.Contains(t, resp.Error, "field State must be one of: purchased failed")
	assert.Contains(t, resp.Error, "field Code is not a valid")
}
