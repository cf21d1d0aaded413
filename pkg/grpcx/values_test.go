package grpcx

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
)

func TestInt(t *testing.T) {
	tests := []struct {
		name    string
		value   *structpb.Value
		want    int64
		wantErr bool
	}{
		{name: "whole number", value: structpb.NewNumberValue(3), want: 3},
		{name: "negative", value: structpb.NewNumberValue(-4), want: -4},
		{name: "fraction", value: structpb.NewNumberValue(2.9), wantErr: true},
		{name: "too large", value: structpb.NewNumberValue(1e20), wantErr: true},
		{name: "nan", value: structpb.NewNumberValue(math.NaN()), wantErr: true},
		{name: "infinity", value: structpb.NewNumberValue(math.Inf(1)), wantErr: true},
		{name: "numeric string", value: structpb.NewStringValue("3"), want: 3},
		{name: "empty string", value: structpb.NewStringValue(""), want: 0},
		{name: "fractional string", value: structpb.NewStringValue("2.5"), wantErr: true},
		{name: "null", value: structpb.NewNullValue(), want: 0},
		{name: "bool", value: structpb.NewBoolValue(true), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &structpb.Struct{Fields: map[string]*structpb.Value{"n": tt.value}}
			got, err := Int(s, "n")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInt_MissingKey(t *testing.T) {
	got, err := Int(&structpb.Struct{}, "n")
	require.NoError(t, err)
	assert.Zero(t, got)

	got, err = Int(nil, "n")
	require.NoError(t, err)
	assert.Zero(t, got)
}

func TestPage(t *testing.T) {
	s, err := structpb.NewStruct(map[string]interface{}{"page": 2, "page_size": "25"})
	require.NoError(t, err)
	page, size, err := Page(s)
	require.NoError(t, err)
	assert.Equal(t, 2, page)
	assert.Equal(t, 25, size)

	s, err = structpb.NewStruct(map[string]interface{}{"page": 1.5})
	require.NoError(t, err)
	_, _, err = Page(s)
	assert.Error(t, err)
}
