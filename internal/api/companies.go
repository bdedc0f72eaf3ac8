package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/vilatvok/rentbot/internal/domain"
)

func (c *Client) GetCompany(ctx context.Context, name string) (*domain.Company, error) {
	var company domain.Company
	if err := c.getJSON(ctx, "/companies/"+url.PathEscape(name), &company); err != nil {
		return nil, err
	}
	return &company, nil
}

func (c *Client) ListCompanies(ctx context.Context, page int) (*Page[domain.Company], error) {
	var resp Page[domain.Company]
	if err := c.getJSON(ctx, fmt.Sprintf("/companies/?page=%d", page), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CompanyOffers(ctx context.Context, name string, page int) (*Page[domain.Offer], error) {
	var resp Page[domain.Offer]
	path := fmt.Sprintf("/companies/%s/offers?page=%d", url.PathEscape(name), page)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// RegisterCompany attaches a company profile to the current user.
func (c *Client) RegisterCompany(ctx context.Context, fields map[string]string) (*domain.Company, error) {
	var company domain.Company
	if _, err := c.sendMultipart(ctx, http.MethodPost, "/companies/register", fields, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// UpdateCompany patches the current user's company. 202 Accepted.
func (c *Client) UpdateCompany(ctx context.Context, fields map[string]string) (*domain.Company, error) {
	var company domain.Company
	if _, err := c.sendMultipart(ctx, http.MethodPatch, "/companies/me", fields, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// DeleteCompany removes the current user's company. 204 No Content.
func (c *Client) DeleteCompany(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodDelete, "/companies/me", "", nil, nil)
	return err
}
