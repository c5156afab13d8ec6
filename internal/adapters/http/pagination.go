package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// PaginatedResponse wraps list results with pagination metadata.
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Pagination Pagination  `json:"pagination"`
}

// Pagination contains offset-based pagination info.
type Pagination struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
	Total  int `json:"total"`
}

// SetLinkHeaders adds RFC 8288 first/prev/next/last links. The links keep
// the request's other query parameters, so filters survive paging. Links
// already set, such as a successor-version, are kept.
func SetLinkHeaders(c *fiber.Ctx, p Pagination) {
	links := []string{pageLink(c, 0, p.Limit, "first")}
	if p.Offset > 0 {
		links = append(links, pageLink(c, max(p.Offset-p.Limit, 0), p.Limit, "prev"))
	}
	if p.Offset+p.Limit < p.Total {
		links = append(links, pageLink(c, p.Offset+p.Limit, p.Limit, "next"))
	}
	links = append(links, pageLink(c, max(p.Total-p.Limit, 0), p.Limit, "last"))

	if existing := c.GetRespHeader(fiber.HeaderLink); existing != "" {
		links = append([]string{existing}, links...)
	}
	c.Set(fiber.HeaderLink, strings.Join(links, ", "))
}

func pageLink(c *fiber.Ctx, offset, limit int, rel string) string {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)

	c.Request().URI().QueryArgs().CopyTo(args)
	args.Set("offset", strconv.Itoa(offset))
	args.Set("limit", strconv.Itoa(limit))
	return "<" + c.Path() + "?" + args.String() + `>; rel="` + rel + `"`
}
