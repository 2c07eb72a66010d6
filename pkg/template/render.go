// Package template renders the two placeholder languages used across the CRM.
//
// Nurture sequence templates and blast messages use double-brace tokens
// ({{nama_lead}}, {{nama_sales}}, {{produk}}, {{perusahaan}}, {{link_produk}},
// {{telepon_sales}}). Ad-hoc quick messages use single-brace tokens
// ({lead_name}, {product_name}, {company_name}, {sales_name},
// {product_price}). The two vocabularies are independent; unknown tokens
// render as empty string in both.
package template

import (
	"io"
	"strconv"
	"strings"

	"github.com/valyala/fasttemplate"

	"github.com/leadpulse-id/outreach-service/internal/domain"
)

// Context carries everything a template may reference. Nil members simply
// leave their tokens empty.
type Context struct {
	Lead    *domain.Lead
	Sales   *domain.SalesUser
	Product *domain.Product
	Company string
}

// NurtureVars maps the double-brace vocabulary.
func NurtureVars(c Context) map[string]string {
	vars := map[string]string{
		"perusahaan": c.Company,
	}
	if c.Lead != nil {
		vars["nama_lead"] = c.Lead.Name
	}
	if c.Sales != nil {
		vars["nama_sales"] = c.Sales.Name
		vars["telepon_sales"] = c.Sales.Phone
	}
	if c.Product != nil {
		vars["produk"] = c.Product.Name
		vars["link_produk"] = c.Product.CatalogURL
	}
	return vars
}

// QuickVars maps the single-brace vocabulary.
func QuickVars(c Context) map[string]string {
	vars := map[string]string{
		"company_name": c.Company,
	}
	if c.Lead != nil {
		vars["lead_name"] = c.Lead.Name
	}
	if c.Sales != nil {
		vars["sales_name"] = c.Sales.Name
	}
	if c.Product != nil {
		vars["product_name"] = c.Product.Name
		vars["product_price"] = strconv.FormatInt(c.Product.Price, 10)
	}
	return vars
}

// RenderNurture substitutes {{token}} placeholders. Unknown tokens become "".
func RenderNurture(body string, c Context) string {
	return render(body, "{{", "}}", NurtureVars(c))
}

// RenderQuick substitutes {token} placeholders. Unknown tokens become "".
func RenderQuick(body string, c Context) string {
	return render(body, "{", "}", QuickVars(c))
}

func render(body, open, close string, vars map[string]string) string {
	t, err := fasttemplate.NewTemplate(body, open, close)
	if err != nil {
		// Unclosed delimiter: treat the body as literal text.
		return body
	}

	return t.ExecuteFuncString(func(w io.Writer, tag string) (int, error) {
		value, ok := vars[strings.TrimSpace(tag)]
		if !ok {
			return 0, nil
		}
		return w.Write([]byte(value))
	})
}
