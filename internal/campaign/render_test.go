package campaign

import (
	"testing"

	"github.com/BoweryJG/BoweryCreative-backend/internal/domain"
)

func TestRenderTemplate(t *testing.T) {
	t.Parallel()

	recipient := domain.Recipient{
		"email":   "ana@customer.test",
		"name":    "Ana",
		"company": "Acme",
	}

	tests := []struct {
		name     string
		template string
		want     string
	}{
		{
			name:     "single placeholder",
			template: "Hello {{name}}!",
			want:     "Hello Ana!",
		},
		{
			name:     "multiple placeholders",
			template: "{{name}} from {{company}}",
			want:     "Ana from Acme",
		},
		{
			name:     "repeated placeholder",
			template: "{{name}} {{name}}",
			want:     "Ana Ana",
		},
		{
			name:     "missing key left intact",
			template: "Hi {{nickname}}, meet {{name}}",
			want:     "Hi {{nickname}}, meet Ana",
		},
		{
			name:     "case sensitive keys",
			template: "Hi {{Name}}",
			want:     "Hi {{Name}}",
		},
		{
			name:     "no placeholders",
			template: "plain text",
			want:     "plain text",
		},
		{
			name:     "empty template",
			template: "",
			want:     "",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := RenderTemplate(tc.template, recipient); got != tc.want {
				t.Fatalf("RenderTemplate() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestRenderTemplateNilRecipient(t *testing.T) {
	t.Parallel()

	if got := RenderTemplate("Hi {{name}}", nil); got != "Hi {{name}}" {
		t.Fatalf("RenderTemplate() = %q, want placeholders untouched", got)
	}
}
