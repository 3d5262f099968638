package resource

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scheduleArgs struct {
	Name     string `json:"name" validate:"required"`
	Schedule struct {
		Cron string `json:"cron" validate:"required,cron"`
	} `json:"schedule"`
	Policies string `json:"policies,omitempty" validate:"omitempty,json"`
}

func TestValidate_RequiredFields(t *testing.T) {
	err := Validate("castai:nodeconfig:NodeTemplate", "tmpl", &testArgs{})
	require.Error(t, err)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "castai:nodeconfig:NodeTemplate", verr.Token)
	assert.Equal(t, "tmpl", verr.Name)
	assert.True(t, verr.HasField("clusterId"))
	assert.True(t, verr.HasField("name"))
	assert.Contains(t, err.Error(), "clusterId (required)")
	assert.True(t, IsValidationError(err))
}

func TestValidate_Valid(t *testing.T) {
	assert.NoError(t, Validate("t", "n", &testArgs{ClusterID: "c", Name: "default-by-castai"}))
}

func TestValidate_K8sName(t *testing.T) {
	err := Validate("t", "n", &testArgs{ClusterID: "c", Name: "Not_Valid"})
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, []FieldError{{Field: "name", Tag: "k8sname"}}, verr.Fields)
}

func TestValidate_NestedCronAndJSON(t *testing.T) {
	args := &scheduleArgs{Name: "nightly", Policies: "{not json"}
	args.Schedule.Cron = "every night"

	err := Validate("t", "n", args)
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.True(t, verr.HasField("schedule.cron"))
	assert.True(t, verr.HasField("policies"))

	args.Schedule.Cron = "0 3 * * *"
	args.Policies = `{"enabled":true}`
	assert.NoError(t, Validate("t", "n", args))
}

func TestValidate_NilArgs(t *testing.T) {
	tests := []struct {
		name string
		args any
	}{
		{name: "untyped nil", args: nil},
		{name: "typed nil pointer", args: (*testArgs)(nil)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate("t", "n", tt.args)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.True(t, verr.HasField("args"))
		})
	}
}

func TestIsValidCron(t *testing.T) {
	tests := []struct {
		expr  string
		valid bool
	}{
		{expr: "*/30 * * * *", valid: true},
		{expr: "0 2 * * 1-5", valid: true},
		{expr: "CRON_TZ=Europe/Vilnius 0 6 * * *", valid: true},
		{expr: "@daily", valid: true},
		{expr: "@every 5m", valid: true},
		{expr: "", valid: false},
		{expr: "* * * *", valid: false},
		{expr: "* * * * * *", valid: false},
		{expr: "0 2 * * $", valid: false},
		{expr: "@sometimes", valid: false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%q", tt.expr), func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidCron(tt.expr))
		})
	}
}
