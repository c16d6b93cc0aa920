package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"shop_service/internal/domain"
	"shop_service/internal/usecase"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

type CatalogHandler struct {
	productUseCase usecase.ProductUseCase
	log            *logrus.Logger
}

func NewCatalogHandler(puc usecase.ProductUseCase, logger *logrus.Logger) *CatalogHandler {
	return &CatalogHandler{
		productUseCase: puc,
		log:            logger,
	}
}

// productToStruct goes through the product's JSON form so both transports
// expose identical field names and decimal encodings.
func productToStruct(p *domain.Product) (*structpb.Struct, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product %d: %w", p.ID, err)
	}
	s := &structpb.Struct{}
	if err := s.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("failed to convert product %d: %w", p.ID, err)
	}
	return s, nil
}

func intField(req *structpb.Struct, name string) (int, error) {
	v, ok := req.GetFields()[name]
	if !ok {
		return 0, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok || n.NumberValue != float64(int(n.NumberValue)) {
		return 0, status.Errorf(codes.InvalidArgument, "%s must be an integer", name)
	}
	return int(n.NumberValue), nil
}

func (h *CatalogHandler) GetProduct(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	id := int(req.GetValue())
	h.log.Infof("gRPC Handler: Received GetProduct request: ID=%d", id)
	if id <= 0 {
		return nil, status.Error(codes.InvalidArgument, "Invalid product ID")
	}

	product, err := h.productUseCase.GetProductByID(ctx, id)
	if err != nil {
		h.log.Warnf("gRPC Handler: GetProduct use case error for ID %d: %v", id, err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}

	out, err := productToStruct(product)
	if err != nil {
		h.log.Errorf("gRPC Handler: %v", err)
		return nil, status.Error(codes.Internal, "Internal server error")
	}
	return out, nil
}

func (h *CatalogHandler) ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var filter domain.ProductFilter
	var err error
	if filter.Limit, err = intField(req, "limit"); err != nil {
		return nil, err
	}
	if filter.Offset, err = intField(req, "offset"); err != nil {
		return nil, err
	}
	if filter.CategoryID, err = intField(req, "category_id"); err != nil {
		return nil, err
	}
	h.log.Infof("gRPC Handler: Received ListProducts request: Limit=%d, Offset=%d, CategoryID=%d",
		filter.Limit, filter.Offset, filter.CategoryID)

	products, err := h.productUseCase.ListProducts(ctx, filter)
	if err != nil {
		h.log.Errorf("gRPC Handler: ListProducts use case error: %v", err)
		return nil, mapDomainErrorToGrpcStatus(err)
	}

	list := make([]*structpb.Value, 0, len(products))
	for i := range products {
		s, err := productToStruct(&products[i])
		if err != nil {
			h.log.Errorf("gRPC Handler: %v", err)
			return nil, status.Error(codes.Internal, "Internal server error")
		}
		list = append(list, structpb.NewStructValue(s))
	}

	h.log.Infof("gRPC Handler: Returning %d products", len(list))
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"products": structpb.NewListValue(&structpb.ListValue{Values: list}),
	}}, nil
}

func mapDomainErrorToGrpcStatus(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, domain.ErrInsufficientStock):
		return status.Error(codes.FailedPrecondition, err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())
	default:
		return status.Error(codes.Internal, "Internal server error")
	}
}
