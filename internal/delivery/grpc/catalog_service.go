package grpc

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// The catalog service is described by hand over well-known types, so no
// generated code is needed on either side.
const (
	CatalogServiceName     = "shop.catalog.v1.CatalogService"
	GetProductFullMethod   = "/" + CatalogServiceName + "/GetProduct"
	ListProductsFullMethod = "/" + CatalogServiceName + "/ListProducts"
	catalogProtoFile       = "shop/catalog/v1/catalog.proto"
)

// catalogFileDescriptor is the equivalent of catalog.proto. Registering it
// lets server reflection resolve the service and its methods.
func catalogFileDescriptor() *descriptorpb.FileDescriptorProto {
	method := func(name, in, out string) *descriptorpb.MethodDescriptorProto {
		return &descriptorpb.MethodDescriptorProto{
			Name:       proto.String(name),
			InputType:  proto.String(in),
			OutputType: proto.String(out),
		}
	}
	return &descriptorpb.FileDescriptorProto{
		Name:    proto.String(catalogProtoFile),
		Package: proto.String("shop.catalog.v1"),
		Dependency: []string{
			"google/protobuf/struct.proto",
			"google/protobuf/wrappers.proto",
		},
		Service: []*descriptorpb.ServiceDescriptorProto{{
			Name: proto.String("CatalogService"),
			Method: []*descriptorpb.MethodDescriptorProto{
				method("GetProduct", ".google.protobuf.Int64Value", ".google.protobuf.Struct"),
				method("ListProducts", ".google.protobuf.Struct", ".google.protobuf.Struct"),
			},
		}},
		Syntax: proto.String("proto3"),
	}
}

func init() {
	// the structpb and wrapperspb imports register both dependencies
	fd, err := protodesc.NewFile(catalogFileDescriptor(), protoregistry.GlobalFiles)
	if err != nil {
		panic(fmt.Sprintf("invalid catalog descriptor: %v", err))
	}
	if err := protoregistry.GlobalFiles.RegisterFile(fd); err != nil {
		panic(fmt.Sprintf("could not register %s: %v", catalogProtoFile, err))
	}
}

type CatalogServer interface {
	GetProduct(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error)
	ListProducts(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetProduct", Handler: getProductHandler},
		{MethodName: "ListProducts", Handler: listProductsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: catalogProtoFile,
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&CatalogServiceDesc, srv)
}

func getProductHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.Int64Value)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).GetProduct(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetProductFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).GetProduct(ctx, req.(*wrapperspb.Int64Value))
	}
	return interceptor(ctx, in, info, handler)
}

func listProductsHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).ListProducts(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListProductsFullMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CatalogServer).ListProducts(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}
