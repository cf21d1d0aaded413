// Package grpcx builds gRPC services whose messages are google.protobuf.Struct,
// so handlers can be registered without generated stubs.
package grpcx

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

type UnaryFunc[S any] func(srv S, ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)

// Unary returns the MethodDesc for service/method dispatching to fn.
// fn is usually a method expression such as TransactionServer.Commit.
func Unary[S any](service, method string, fn UnaryFunc[S]) grpc.MethodDesc {
	fullMethod := "/" + service + "/" + method
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			call := func(ctx context.Context, req interface{}) (interface{}, error) {
				return fn(srv.(S), ctx, req.(*structpb.Struct))
			}
			if interceptor == nil {
				return call(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			return interceptor(ctx, in, info, call)
		},
	}
}
