package service

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/mealplan/internal/providers/pdf"
	subscriptiondomain "github.com/smallbiznis/mealplan/internal/subscription/domain"
	"github.com/smallbiznis/mealplan/pkg/db/pagination"
)

const (
	defaultAdminPageSize = 20
	maxAdminPageSize     = 100
)

func (s *Service) ListMine(ctx context.Context, userID string) ([]subscriptiondomain.SubscriptionResponse, error) {
	owner, err := parseID(userID, "userId")
	if err != nil {
		return nil, err
	}
	items, err := s.repo.ListByUser(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}
	return toResponses(items), nil
}

func (s *Service) Get(ctx context.Context, userID, subscriptionID string) (*subscriptiondomain.SubscriptionResponse, error) {
	owner, err := parseID(userID, "userId")
	if err != nil {
		return nil, err
	}
	subID, err := parseID(subscriptionID, "id")
	if err != nil {
		return nil, err
	}
	sub, err := s.loadOwned(ctx, owner, subID)
	if err != nil {
		return nil, err
	}
	resp := subscriptiondomain.ToResponse(sub)
	return &resp, nil
}

func (s *Service) GetActive(ctx context.Context, userID string) (*subscriptiondomain.ActiveResponse, error) {
	owner, err := parseID(userID, "userId")
	if err != nil {
		return nil, err
	}
	sub, err := s.repo.FindActiveByUser(ctx, s.db, owner)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &subscriptiondomain.ActiveResponse{HasActive: false}, nil
	}
	resp := subscriptiondomain.ToResponse(sub)
	return &subscriptiondomain.ActiveResponse{HasActive: true, Subscription: &resp}, nil
}

func (s *Service) AdminList(ctx context.Context, req subscriptiondomain.AdminListRequest) (*subscriptiondomain.AdminListResponse, error) {
	filter := subscriptiondomain.ListFilter{}

	if raw := strings.ToLower(strings.TrimSpace(req.Status)); raw != "" {
		status := subscriptiondomain.SubscriptionStatus(raw)
		if !status.Valid() {
			return nil, &subscriptiondomain.RuleError{
				Err:     subscriptiondomain.ErrInvalidStatus,
				Field:   "status",
				Message: fmt.Sprintf("%q is not a subscription status", req.Status),
			}
		}
		filter.Status = status
	}

	cursor, err := pagination.DecodeCursor(req.PageToken)
	if err != nil {
		return nil, invalidPageToken()
	}
	if cursor != nil {
		createdAt, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return nil, invalidPageToken()
		}
		id, err := snowflake.ParseString(cursor.ID)
		if err != nil || id == 0 {
			return nil, invalidPageToken()
		}
		filter.AfterCreatedAt = &createdAt
		filter.AfterID = id
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultAdminPageSize
	}
	if pageSize > maxAdminPageSize {
		pageSize = maxAdminPageSize
	}
	filter.Limit = pageSize + 1

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	ptrs := make([]*subscriptiondomain.Subscription, 0, len(items))
	for i := range items {
		ptrs = append(ptrs, &items[i])
	}
	page, info, err := pagination.BuildCursorPageInfo(ptrs, pageSize, func(sub *subscriptiondomain.Subscription) pagination.Cursor {
		return pagination.Cursor{
			ID:        sub.ID.String(),
			CreatedAt: sub.CreatedAt.UTC().Format(time.RFC3339Nano),
		}
	})
	if err != nil {
		return nil, err
	}

	out := make([]subscriptiondomain.SubscriptionResponse, 0, len(page))
	for _, sub := range page {
		out = append(out, subscriptiondomain.ToResponse(sub))
	}
	return &subscriptiondomain.AdminListResponse{Subscriptions: out, PageInfo: *info}, nil
}

func (s *Service) AdminGet(ctx context.Context, subscriptionID string) (*subscriptiondomain.SubscriptionResponse, error) {
	subID, err := parseID(subscriptionID, "id")
	if err != nil {
		return nil, err
	}
	sub, err := s.load(ctx, subID)
	if err != nil {
		return nil, err
	}
	resp := subscriptiondomain.ToResponse(sub)
	return &resp, nil
}

func (s *Service) Stats(ctx context.Context) (*subscriptiondomain.Stats, error) {
	stats, err := s.repo.Stats(ctx, s.db)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

func (s *Service) ScheduleManifest(ctx context.Context, subscriptionID string) (io.Reader, error) {
	subID, err := parseID(subscriptionID, "id")
	if err != nil {
		return nil, err
	}
	sub, err := s.load(ctx, subID)
	if err != nil {
		return nil, err
	}

	period := "not started"
	if sub.StartDate != nil && sub.EndDate != nil {
		period = s.cal.FormatDay(*sub.StartDate) + " to " + s.cal.FormatDay(*sub.EndDate)
	}

	entries := make([]pdf.ManifestEntry, 0, len(sub.DeliverySchedule))
	for _, entry := range sub.DeliverySchedule {
		entries = append(entries, pdf.ManifestEntry{
			Date:     s.cal.FormatDay(entry.Date),
			TimeSlot: entry.TimeSlot,
			Address:  entry.Address,
			Status:   string(entry.Status),
		})
	}

	return s.pdf.GenerateScheduleManifest(ctx, pdf.ScheduleManifest{
		SubscriptionID: sub.ID.String(),
		Status:         string(sub.Status),
		GeneratedAt:    s.now().In(s.cal.Location()).Format(time.RFC1123),
		PlanName:       sub.PlanSnapshot.Name,
		Period:         period,
		Total:          formatAmount(sub.TotalAmount),
		CustomerName:   sub.DeliveryDetails.Name,
		Phone:          sub.DeliveryDetails.Phone,
		Address:        sub.DeliveryDetails.Address,
		DeliveryTime:   sub.DeliveryDetails.DeliveryTime,
		Days:           sub.PlanSnapshot.Days,
		SkipDays:       sub.PlanSnapshot.SkipDays,
		Delivered:      sub.DeliveriesCompleted,
		Skipped:        sub.SkipsUsed,
		Entries:        entries,
	})
}

func invalidPageToken() error {
	return &subscriptiondomain.RuleError{
		Err:     subscriptiondomain.ErrInvalidRequest,
		Field:   "page_token",
		Message: "invalid page token",
	}
}

// formatAmount renders minor units as a decimal amount.
func formatAmount(minor int64) string {
	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}
	return fmt.Sprintf("%s%d.%02d", sign, minor/100, minor%100)
}
