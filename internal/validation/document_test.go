package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocumentName(t *testing.T) {
	tests := []struct {
		name    string
		docName string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid name",
			docName: "Моя доска",
			wantErr: false,
		},
		{
			name:    "valid name - single char",
			docName: "x",
			wantErr: false,
		},
		{
			name:    "valid name - max length",
			docName: strings.Repeat("а", MaxDocumentNameLen),
			wantErr: false,
		},
		{
			name:    "invalid - empty",
			docName: "",
			wantErr: true,
			errMsg:  "cannot be empty",
		},
		{
			name:    "invalid - whitespace only",
			docName: "   \t",
			wantErr: true,
			errMsg:  "cannot be empty",
		},
		{
			name:    "invalid - too long",
			docName: strings.Repeat("a", MaxDocumentNameLen+1),
			wantErr: true,
			errMsg:  "must not exceed",
		},
		{
			name:    "invalid - broken utf8",
			docName: "board\xff\xfe",
			wantErr: true,
			errMsg:  "valid UTF-8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocumentName(tt.docName)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
