package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlantislabs/atlantis/internal/domain"
)

func TestText_PlainText(t *testing.T) {
	result, err := Text([]byte("hello world\nsecond line"), KindPlainText)
	require.NoError(t, err)
	assert.Equal(t, "hello world\nsecond line", result.Text)
	assert.Equal(t, 1, result.Segments)
}

func TestText_EmptyContent(t *testing.T) {
	_, err := Text(nil, KindPlainText)
	assert.ErrorIs(t, err, domain.ErrEmptyDocument)
}

func TestText_WhitespaceOnlyPlainText(t *testing.T) {
	_, err := Text([]byte("   \n\t  "), KindPlainText)
	assert.ErrorIs(t, err, domain.ErrNoExtractableText)
}

func TestText_InvalidUTF8(t *testing.T) {
	_, err := Text([]byte{0xff, 0xfe, 0xfd}, KindPlainText)
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeValidation, domainErr.Code)
}

func TestText_UnsupportedKind(t *testing.T) {
	_, err := Text([]byte("data"), ContentKind("image/png"))
	assert.ErrorIs(t, err, domain.ErrUnsupportedDocument)
}

func TestText_CorruptPDF(t *testing.T) {
	_, err := Text([]byte("this is not a pdf"), KindPDF)
	require.Error(t, err)

	var domainErr *domain.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, domain.ErrCodeUnreadableDocument, domainErr.Code)
}
