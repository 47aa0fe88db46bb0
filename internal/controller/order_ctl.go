package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront_v1_202610/internal/service"
)

// OrderController 订单与支付
type OrderController struct {
	orderService *service.OrderService
}

func NewOrderController(orderService *service.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// CreateOrder 下单
// @Summary 创建订单 (基础货币)
// @Tags Order
// @Param body body service.CreateOrderInput true "下单参数"
// @Router /api/orders [post]
func (ctrl *OrderController) CreateOrder(c *gin.Context) {
	var req service.CreateOrderInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	order, err := ctrl.orderService.CreateOrder(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusCreated, order)
}

// GetOrder 订单详情，金额按支付快照回显
// @Summary 订单详情
// @Tags Order
// @Param id path int true "订单ID"
// @Router /api/orders/{id} [get]
func (ctrl *OrderController) GetOrder(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	order, err := ctrl.orderService.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"order":  order,
		"totals": service.DisplayOrderTotals(order),
	})
}

// RecordPayment 支付回调：写入货币快照与服务费并扣库存
// @Summary 记录支付
// @Tags Order
// @Param id path int true "订单ID"
// @Param body body service.PaymentInput true "支付结果"
// @Router /api/orders/{id}/payment [post]
func (ctrl *OrderController) RecordPayment(c *gin.Context) {
	orderID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req service.PaymentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "参数错误: "+err.Error())
		return
	}

	order, err := ctrl.orderService.RecordPayment(c.Request.Context(), orderID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, http.StatusOK, gin.H{
		"order":  order,
		"totals": service.DisplayOrderTotals(order),
	})
}
