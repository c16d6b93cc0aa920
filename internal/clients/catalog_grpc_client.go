package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"shop_service/internal/domain"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	getProductMethod   = "/shop.catalog.v1.CatalogService/GetProduct"
	listProductsMethod = "/shop.catalog.v1.CatalogService/ListProducts"
	callTimeout        = 3 * time.Second
)

type CatalogClient interface {
	GetProduct(ctx context.Context, productID int) (*domain.Product, error)
	ListProducts(ctx context.Context, limit, offset, categoryID int) ([]domain.Product, error)
	Close() error
}

type catalogGRPCClient struct {
	conn *grpc.ClientConn
	log  *logrus.Logger
}

func NewCatalogGRPCClient(target string, logger *logrus.Logger, opts ...grpc.DialOption) (CatalogClient, error) {
	logger.Infof("CatalogClient: Creating gRPC client for target: %s", target)
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(target, opts...)
	if err != nil {
		logger.Errorf("CatalogClient: Failed to create client for %s: %v", target, err)
		return nil, fmt.Errorf("failed to connect to catalog service at %s: %w", target, err)
	}
	return &catalogGRPCClient{conn: conn, log: logger}, nil
}

func (c *catalogGRPCClient) Close() error {
	if c.conn != nil {
		c.log.Info("CatalogClient: Closing gRPC connection")
		return c.conn.Close()
	}
	return nil
}

// mapStatusToDomainError is the inverse of the server's status mapping.
func mapStatusToDomainError(err error) error {
	st, ok := status.FromError(err)
	if !ok {
		return err
	}
	switch st.Code() {
	case codes.NotFound:
		return fmt.Errorf("%s: %w", st.Message(), domain.ErrNotFound)
	case codes.InvalidArgument:
		return fmt.Errorf("%s: %w", st.Message(), domain.ErrInvalidArgument)
	case codes.AlreadyExists:
		return fmt.Errorf("%s: %w", st.Message(), domain.ErrAlreadyExists)
	case codes.FailedPrecondition:
		return fmt.Errorf("%s: %w", st.Message(), domain.ErrInsufficientStock)
	}
	return fmt.Errorf("catalog service error: %w", err)
}

func decodeProduct(s *structpb.Struct) (*domain.Product, error) {
	raw, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var p domain.Product
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to decode product: %w", err)
	}
	return &p, nil
}

func (c *catalogGRPCClient) GetProduct(ctx context.Context, productID int) (*domain.Product, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	out := &structpb.Struct{}
	if err := c.conn.Invoke(callCtx, getProductMethod, wrapperspb.Int64(int64(productID)), out); err != nil {
		c.log.Warnf("CatalogClient(gRPC): GetProduct %d failed: %v", productID, err)
		return nil, mapStatusToDomainError(err)
	}
	return decodeProduct(out)
}

func (c *catalogGRPCClient) ListProducts(ctx context.Context, limit, offset, categoryID int) ([]domain.Product, error) {
	callCtx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := structpb.NewStruct(map[string]any{
		"limit":       limit,
		"offset":      offset,
		"category_id": categoryID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	out := &structpb.Struct{}
	if err := c.conn.Invoke(callCtx, listProductsMethod, req, out); err != nil {
		c.log.Warnf("CatalogClient(gRPC): ListProducts failed: %v", err)
		return nil, mapStatusToDomainError(err)
	}

	values := out.GetFields()["products"].GetListValue().GetValues()
	products := make([]domain.Product, 0, len(values))
	for _, v := range values {
		p, err := decodeProduct(v.GetStructValue())
		if err != nil {
			return nil, err
		}
		products = append(products, *p)
	}
	return products, nil
}
