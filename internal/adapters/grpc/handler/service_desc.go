package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName は gRPC サービスの完全修飾名です。
const ServiceName = "orgrecords.v1.OrgRecordsService"

// OrgRecordsServer は OrgRecordsService のサーバー側インターフェースです。
// リクエストとレスポンスはすべて google.protobuf.Struct で表現します。
type OrgRecordsServer interface {
	RegisterEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	IssueToken(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteEmployee(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddSubdivision(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSubdivision(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RenameSubdivision(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AssignLeader(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddMember(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RemoveMember(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteSubdivision(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddInterval(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetInterval(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateInterval(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteInterval(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListEmployeeIntervals(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(OrgRecordsServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryMethod(name string, call unaryCall) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(OrgRecordsServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(OrgRecordsServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc は OrgRecordsService の grpc.ServiceDesc です。
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*OrgRecordsServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("RegisterEmployee", OrgRecordsServer.RegisterEmployee),
		unaryMethod("IssueToken", OrgRecordsServer.IssueToken),
		unaryMethod("AddEmployee", OrgRecordsServer.AddEmployee),
		unaryMethod("GetEmployee", OrgRecordsServer.GetEmployee),
		unaryMethod("UpdateEmployee", OrgRecordsServer.UpdateEmployee),
		unaryMethod("DeleteEmployee", OrgRecordsServer.DeleteEmployee),
		unaryMethod("AddSubdivision", OrgRecordsServer.AddSubdivision),
		unaryMethod("GetSubdivision", OrgRecordsServer.GetSubdivision),
		unaryMethod("RenameSubdivision", OrgRecordsServer.RenameSubdivision),
		unaryMethod("AssignLeader", OrgRecordsServer.AssignLeader),
		unaryMethod("AddMember", OrgRecordsServer.AddMember),
		unaryMethod("RemoveMember", OrgRecordsServer.RemoveMember),
		unaryMethod("DeleteSubdivision", OrgRecordsServer.DeleteSubdivision),
		unaryMethod("AddInterval", OrgRecordsServer.AddInterval),
		unaryMethod("GetInterval", OrgRecordsServer.GetInterval),
		unaryMethod("UpdateInterval", OrgRecordsServer.UpdateInterval),
		unaryMethod("DeleteInterval", OrgRecordsServer.DeleteInterval),
		unaryMethod("ListEmployeeIntervals", OrgRecordsServer.ListEmployeeIntervals),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orgrecords/v1/orgrecords.proto",
}

// RegisterOrgRecordsServer は srv を s に登録します。
func RegisterOrgRecordsServer(s grpc.ServiceRegistrar, srv OrgRecordsServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// Client は OrgRecordsService のクライアントです。
type Client struct {
	cc grpc.ClientConnInterface
}

// NewClient は Client を生成します。
func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

// Call は method を呼び出します。method は "AddEmployee" のようなメソッド名です。
func (c *Client) Call(ctx context.Context, method string, req *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ServiceName+"/"+method, req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
