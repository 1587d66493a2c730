package grpc

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/fundledger-backend/internal/domain"
)

func field(req *structpb.Struct, key string) (*structpb.Value, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return nil, status.Errorf(codes.InvalidArgument, "%s is required", key)
	}
	return v, nil
}

func stringField(req *structpb.Struct, key string) string {
	return req.GetFields()[key].GetStringValue()
}

func uuidField(req *structpb.Struct, key string) (uuid.UUID, error) {
	v, err := field(req, key)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(v.GetStringValue())
	if err != nil {
		return uuid.Nil, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
	}
	return id, nil
}

// decimalField accepts a decimal string or a JSON number.
// Strings are preferred since numbers travel as float64.
func decimalField(req *structpb.Struct, key string) (decimal.Decimal, error) {
	v, err := field(req, key)
	if err != nil {
		return decimal.Zero, err
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_StringValue:
		d, err := decimal.NewFromString(kind.StringValue)
		if err != nil {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s format: %v", key, err)
		}
		return d, nil
	case *structpb.Value_NumberValue:
		if math.IsNaN(kind.NumberValue) || math.IsInf(kind.NumberValue, 0) {
			return decimal.Zero, status.Errorf(codes.InvalidArgument, "invalid %s: not a finite number", key)
		}
		return decimal.NewFromFloat(kind.NumberValue), nil
	default:
		return decimal.Zero, status.Errorf(codes.InvalidArgument, "%s must be a decimal string or number", key)
	}
}

func int64Field(req *structpb.Struct, key string) (int64, error) {
	v, err := field(req, key)
	if err != nil {
		return 0, err
	}
	n := v.GetNumberValue()
	if _, isNum := v.GetKind().(*structpb.Value_NumberValue); !isNum || n != math.Trunc(n) || n <= 0 {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be a positive integer", key)
	}
	return int64(n), nil
}

// dateField parses key, defaulting to the current time when absent
func (s *Server) dateField(req *structpb.Struct, key string) (time.Time, error) {
	raw := stringField(req, key)
	if raw == "" {
		return s.now().UTC(), nil
	}
	t, err := domain.ParseDate(raw)
	if err != nil {
		return time.Time{}, status.Errorf(codes.InvalidArgument, "invalid %s: %v", key, err)
	}
	return t, nil
}

// investorFrom builds an investor from the request. A new investor gets a
// fresh ID unless one is given; an edit requires it.
func investorFrom(req *structpb.Struct, edit bool) (domain.Investor, error) {
	inv := domain.Investor{
		Name:  stringField(req, "name"),
		Email: stringField(req, "email"),
		Phone: stringField(req, "phone"),
	}

	if _, has := req.GetFields()["investor_id"]; has || edit {
		id, err := uuidField(req, "investor_id")
		if err != nil {
			return domain.Investor{}, err
		}
		inv.ID = id
	} else {
		inv.ID = uuid.New()
	}

	if raw := stringField(req, "join_date"); raw != "" {
		t, err := domain.ParseDate(raw)
		if err != nil {
			return domain.Investor{}, status.Errorf(codes.InvalidArgument, "invalid join_date: %v", err)
		}
		inv.JoinDate = t
	}
	if inv.Name == "" {
		return domain.Investor{}, status.Error(codes.InvalidArgument, "name is required")
	}
	return inv, nil
}
